package sealedkv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/medinodus/internal/platform/memkv"
	"github.com/phrazzld/medinodus/internal/store"
	"github.com/phrazzld/medinodus/internal/store/storetest"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newSealed(t *testing.T) (*Store, *memkv.Store) {
	t.Helper()
	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)

	inner := memkv.New()
	s, err := New(inner, key, store.SensitiveKeys)
	require.NoError(t, err)
	return s, inner
}

func TestContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.KVStore {
		s, _ := newSealed(t)
		return s
	})
}

func TestSensitiveValuesAreSealed(t *testing.T) {
	ctx := context.Background()
	s, inner := newSealed(t)

	medical := `{"conditions":"asthma","allergies":"peanuts","medications":""}`
	require.NoError(t, s.Set(ctx, store.KeyMedicalInfo, medical))
	require.NoError(t, s.Set(ctx, store.KeyTheme, "dark"))

	raw := inner.Dump()
	assert.True(t, strings.HasPrefix(raw[store.KeyMedicalInfo], Prefix))
	assert.NotContains(t, raw[store.KeyMedicalInfo], "asthma")
	assert.Equal(t, "dark", raw[store.KeyTheme], "non-sensitive keys pass through")

	got, err := s.Get(ctx, store.KeyMedicalInfo)
	require.NoError(t, err)
	assert.Equal(t, medical, got)
}

func TestLegacyPlaintextIsReadable(t *testing.T) {
	ctx := context.Background()
	s, inner := newSealed(t)
	require.NoError(t, inner.Set(ctx, store.KeyUserToken, "legacy-token"))

	got, err := s.Get(ctx, store.KeyUserToken)
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", got)
}

func TestValueMovedToAnotherKeyFails(t *testing.T) {
	ctx := context.Background()
	s, inner := newSealed(t)
	require.NoError(t, s.Set(ctx, store.KeyUserToken, "secret"))

	raw := inner.Dump()[store.KeyUserToken]
	require.NoError(t, inner.Set(ctx, store.KeyUser, raw))

	_, err := s.Get(ctx, store.KeyUser)
	assert.ErrorIs(t, err, ErrTampered)
}

func TestCorruptSealedValue(t *testing.T) {
	ctx := context.Background()
	s, inner := newSealed(t)
	require.NoError(t, inner.Set(ctx, store.KeyReports, Prefix+"!!!not-base64"))

	_, err := s.Get(ctx, store.KeyReports)
	assert.ErrorIs(t, err, ErrTampered)
}

func TestParseKey(t *testing.T) {
	_, err := ParseKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParseKey("zz" + testKeyHex[2:])
	assert.ErrorIs(t, err, ErrInvalidKey)

	key, err := ParseKey(" " + testKeyHex + "\n")
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
