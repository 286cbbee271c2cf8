// Package sealedkv encrypts selected values before they reach an underlying
// store.KVStore. Sealed values use XChaCha20-Poly1305 with the key name as
// additional data, so a value copied under another key fails to open.
package sealedkv

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/phrazzld/medinodus/internal/store"
)

// Prefix marks a sealed value.
const Prefix = "sealed:v1:"

const backendName = "sealed"

var (
	// ErrInvalidKey is returned when the encryption key is not 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (64 hex characters)")

	// ErrTampered is returned when a sealed value fails authentication.
	ErrTampered = errors.New("sealed value failed authentication")
)

// Store seals values for a fixed set of keys and passes everything else through.
type Store struct {
	inner  store.KVStore
	aead   cipher.AEAD
	sealed map[string]bool
}

var _ store.KVStore = (*Store)(nil)

// ParseKey decodes a hex-encoded 32-byte key.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// New wraps inner, sealing the values stored under keys.
func New(inner store.KVStore, key []byte, keys []string) (*Store, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidKey
	}
	sealed := make(map[string]bool, len(keys))
	for _, k := range keys {
		sealed[k] = true
	}
	return &Store{inner: inner, aead: aead, sealed: sealed}, nil
}

// Get implements store.KVStore. Unsealed values stored before encryption
// was enabled are returned unchanged.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.inner.Get(ctx, key)
	if err != nil || !s.sealed[key] || !strings.HasPrefix(v, Prefix) {
		return v, err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, Prefix))
	if err != nil || len(raw) < s.aead.NonceSize() {
		return "", store.NewStoreError(backendName, "open", key, ErrTampered)
	}
	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return "", store.NewStoreError(backendName, "open", key, ErrTampered)
	}
	return string(plain), nil
}

// Set implements store.KVStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if !s.sealed[key] {
		return s.inner.Set(ctx, key, value)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return store.NewStoreError(backendName, "seal", key, fmt.Errorf("nonce: %w", err))
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, Prefix+base64.StdEncoding.EncodeToString(out))
}

// Remove implements store.KVStore.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

// RemoveMany implements store.KVStore.
func (s *Store) RemoveMany(ctx context.Context, keys []string) error {
	return s.inner.RemoveMany(ctx, keys)
}
