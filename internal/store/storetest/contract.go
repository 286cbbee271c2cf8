// Package storetest provides a behavioural test suite that every
// store.KVStore implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/medinodus/internal/store"
)

// Factory creates a fresh, empty store for a single subtest.
type Factory func(t *testing.T) store.KVStore

// RunContract exercises the KVStore contract against stores built by newStore.
func RunContract(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("get absent key returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, store.ErrNotFound), "expected ErrNotFound, got %v", err)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, store.KeyTheme, "dark"))

		got, err := s.Get(ctx, store.KeyTheme)
		require.NoError(t, err)
		assert.Equal(t, "dark", got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, store.KeyHighContrast, "false"))
		require.NoError(t, s.Set(ctx, store.KeyHighContrast, "true"))

		got, err := s.Get(ctx, store.KeyHighContrast)
		require.NoError(t, err)
		assert.Equal(t, "true", got)
	})

	t.Run("empty value is stored", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "blank", ""))

		got, err := s.Get(ctx, "blank")
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("json values survive", func(t *testing.T) {
		s := newStore(t)
		doc := `{"conditions":"asthma","allergies":"peanuts \"raw\"","medications":"ünïcode"}`
		require.NoError(t, s.Set(ctx, store.KeyMedicalInfo, doc))

		got, err := s.Get(ctx, store.KeyMedicalInfo)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, store.KeyUserToken, "tok"))
		require.NoError(t, s.Remove(ctx, store.KeyUserToken))

		_, err := s.Get(ctx, store.KeyUserToken)
		assert.True(t, errors.Is(err, store.ErrNotFound))

		// Removing again is not an error
		assert.NoError(t, s.Remove(ctx, store.KeyUserToken))
	})

	t.Run("remove many", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, store.KeyIsLoggedIn, "true"))
		require.NoError(t, s.Set(ctx, store.KeyUserToken, "tok"))
		require.NoError(t, s.Set(ctx, store.KeyTheme, "light"))

		require.NoError(t, s.RemoveMany(ctx, []string{store.KeyIsLoggedIn, store.KeyUserToken, "never-set"}))

		_, err := s.Get(ctx, store.KeyIsLoggedIn)
		assert.True(t, errors.Is(err, store.ErrNotFound))
		_, err = s.Get(ctx, store.KeyUserToken)
		assert.True(t, errors.Is(err, store.ErrNotFound))

		got, err := s.Get(ctx, store.KeyTheme)
		require.NoError(t, err)
		assert.Equal(t, "light", got, "unrelated keys must survive RemoveMany")

		assert.NoError(t, s.RemoveMany(ctx, nil))
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(ctx, "", "v")
		assert.True(t, errors.Is(err, store.ErrEmptyKey), "expected ErrEmptyKey, got %v", err)
	})
}
