package mocks

import (
	"context"

	"github.com/phrazzld/medinodus/internal/store"
)

// MockKVStore implements store.KVStore. Methods without a function field
// delegate to Inner.
type MockKVStore struct {
	Inner store.KVStore

	GetFn        func(ctx context.Context, key string) (string, error)
	SetFn        func(ctx context.Context, key, value string) error
	RemoveFn     func(ctx context.Context, key string) error
	RemoveManyFn func(ctx context.Context, keys []string) error
}

var _ store.KVStore = (*MockKVStore)(nil)

// Get implements the store.KVStore interface
func (m *MockKVStore) Get(ctx context.Context, key string) (string, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return m.Inner.Get(ctx, key)
}

// Set implements the store.KVStore interface
func (m *MockKVStore) Set(ctx context.Context, key, value string) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value)
	}
	return m.Inner.Set(ctx, key, value)
}

// Remove implements the store.KVStore interface
func (m *MockKVStore) Remove(ctx context.Context, key string) error {
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, key)
	}
	return m.Inner.Remove(ctx, key)
}

// RemoveMany implements the store.KVStore interface
func (m *MockKVStore) RemoveMany(ctx context.Context, keys []string) error {
	if m.RemoveManyFn != nil {
		return m.RemoveManyFn(ctx, keys)
	}
	return m.Inner.RemoveMany(ctx, keys)
}
