// Package rediskv implements store.KVStore on Redis. Keys are namespaced with
// a prefix so several installations can share one Redis database.
package rediskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/medinodus/internal/store"
)

const backendName = "redis"

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "medinodus:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store wraps a go-redis client.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.Backend = (*Store)(nil)

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("rediskv: empty address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, opts.Prefix), nil
}

// New wraps an existing client. An empty prefix selects DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Get implements store.KVStore.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", s.wrap("get", key, err)
	}
	return v, nil
}

// Set implements store.KVStore. Values never expire.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return store.ErrEmptyKey
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return s.wrap("set", key, err)
	}
	return nil
}

// Remove implements store.KVStore.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, []string{key})
}

// RemoveMany implements store.KVStore with a single DEL.
func (s *Store) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return s.wrap("remove", "", err)
	}
	return nil
}

// Close implements store.Backend.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) wrap(op, key string, err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return store.ErrClosed
	}
	return store.NewStoreError(backendName, op, key, err)
}
