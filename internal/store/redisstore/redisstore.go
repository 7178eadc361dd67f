package redisstore

import (
	"context"
	"errors"

	redis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "eb_"

// Store keeps each collection under <prefix><collection>. Batches run inside
// MULTI/EXEC so readers never see half of a write.
type Store struct {
	client *redis.Client
	prefix string
}

func New(addr string, password string, db int, prefix string) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewWithClient(client, prefix)
}

func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, collection string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *Store) Put(ctx context.Context, writes map[string][]byte) error {
	if len(writes) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for collection, payload := range writes {
			pipe.Set(ctx, s.key(collection), payload, 0)
		}
		return nil
	})
	return err
}

func (s *Store) key(collection string) string {
	return s.prefix + collection
}
