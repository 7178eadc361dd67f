package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"elegance/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalid           = errors.New("invalid request")
	ErrUnavailable       = errors.New("storage unavailable")
)

// InsufficientStockError reports the first cart line that cannot be served.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

const (
	CollectionProducts    = "products"
	CollectionCustomers   = "customers"
	CollectionOrders      = "orders"
	CollectionExpenses    = "expenses"
	CollectionInitialized = "initialized"
)

// Backend is the whole-collection key-value medium. Get returns nil, nil for
// a collection that was never written. Put applies every write or none.
type Backend interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Put(ctx context.Context, writes map[string][]byte) error
	Close() error
}

type Repository struct {
	backend Backend
}

func NewRepository(backend Backend) *Repository {
	return &Repository{backend: backend}
}

func (r *Repository) Close() error {
	return r.backend.Close()
}

func (r *Repository) Products(ctx context.Context) ([]domain.Product, error) {
	return load[domain.Product](ctx, r.backend, CollectionProducts)
}

func (r *Repository) Customers(ctx context.Context) ([]domain.Customer, error) {
	return load[domain.Customer](ctx, r.backend, CollectionCustomers)
}

func (r *Repository) Orders(ctx context.Context) ([]domain.Order, error) {
	return load[domain.Order](ctx, r.backend, CollectionOrders)
}

func (r *Repository) Expenses(ctx context.Context) ([]domain.Expense, error) {
	return load[domain.Expense](ctx, r.backend, CollectionExpenses)
}

func (r *Repository) Initialized(ctx context.Context) (bool, error) {
	raw, err := r.backend.Get(ctx, CollectionInitialized)
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, CollectionInitialized, err)
	}
	return len(raw) > 0, nil
}

// Commit writes every staged collection in one backend call.
func (r *Repository) Commit(ctx context.Context, batch *Batch) error {
	if batch == nil || len(batch.writes) == 0 {
		return nil
	}
	if batch.err != nil {
		return batch.err
	}
	if err := r.backend.Put(ctx, batch.writes); err != nil {
		return fmt.Errorf("%w: put: %w", ErrUnavailable, err)
	}
	return nil
}

// Batch collects whole-collection writes for a single Commit.
type Batch struct {
	writes map[string][]byte
	err    error
}

func NewBatch() *Batch {
	return &Batch{writes: make(map[string][]byte, 4)}
}

func (b *Batch) Products(products []domain.Product) *Batch {
	return stage(b, CollectionProducts, products)
}

func (b *Batch) Customers(customers []domain.Customer) *Batch {
	return stage(b, CollectionCustomers, customers)
}

func (b *Batch) Orders(orders []domain.Order) *Batch {
	return stage(b, CollectionOrders, orders)
}

func (b *Batch) Expenses(expenses []domain.Expense) *Batch {
	return stage(b, CollectionExpenses, expenses)
}

func (b *Batch) MarkInitialized() *Batch {
	b.writes[CollectionInitialized] = []byte("true")
	return b
}

func stage[T any](b *Batch, collection string, records []T) *Batch {
	if b.err != nil {
		return b
	}
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		b.err = fmt.Errorf("encode %s: %w", collection, err)
		return b
	}
	b.writes[collection] = payload
	return b
}

func load[T any](ctx context.Context, backend Backend, collection string) ([]T, error) {
	raw, err := backend.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrUnavailable, collection, err)
	}
	records := make([]T, 0)
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, collection, err)
	}
	return records, nil
}
