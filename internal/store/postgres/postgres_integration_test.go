package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestPutWritesCollectionsTogether(t *testing.T) {
	databaseURL := os.Getenv("ELEGANCE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set ELEGANCE_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	orders := fmt.Sprintf("orders-it-%d", stamp)
	customers := fmt.Sprintf("customers-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ANY($1)`, []string{orders, customers})
	})

	missing, err := s.Get(ctx, orders)
	if err != nil {
		t.Fatalf("get missing collection: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil payload for unwritten collection, got %s", missing)
	}

	err = s.Put(ctx, map[string][]byte{
		orders:    []byte(`[{"id":"o1","total_amount":"200000"}]`),
		customers: []byte(`[{"id":"c1","current_debt":"200000"}]`),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := s.Get(ctx, customers)
	if err != nil {
		t.Fatalf("get customers: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected customers payload to be stored")
	}

	err = s.Put(ctx, map[string][]byte{
		orders:    []byte(`[]`),
		customers: []byte(`not json`),
	})
	if err == nil {
		t.Fatalf("expected invalid payload to fail the batch")
	}

	raw, err = s.Get(ctx, orders)
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if string(raw) == "[]" {
		t.Fatalf("expected failed batch to leave orders untouched")
	}
}
