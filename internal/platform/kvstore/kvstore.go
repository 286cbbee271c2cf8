// Package kvstore opens the store.Backend selected by configuration.
package kvstore

import (
	"context"
	"fmt"

	"github.com/phrazzld/medinodus/internal/config"
	"github.com/phrazzld/medinodus/internal/platform/filekv"
	"github.com/phrazzld/medinodus/internal/platform/memkv"
	"github.com/phrazzld/medinodus/internal/platform/rediskv"
	"github.com/phrazzld/medinodus/internal/platform/sealedkv"
	"github.com/phrazzld/medinodus/internal/platform/sqlkv"
	"github.com/phrazzld/medinodus/internal/store"
)

// Supported drivers
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open selects a backend from cfg.Driver.
//
//	memory:   process-local map, lost on exit
//	file:     JSON document at cfg.Path
//	sqlite:   SQLite database at cfg.Path
//	redis:    Redis at cfg.RedisAddr
//	postgres: Postgres at cfg.PostgresDSN
//
// When cfg.EncryptionKey is set the backend is wrapped so that
// store.SensitiveKeys are sealed at rest.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Backend, error) {
	backend, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return backend, nil
	}

	key, err := sealedkv.ParseKey(cfg.EncryptionKey)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	sealed, err := sealedkv.New(backend, key, store.SensitiveKeys)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &sealedBackend{Store: sealed, inner: backend}, nil
}

func openDriver(ctx context.Context, cfg config.StoreConfig) (store.Backend, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memkv.New(), nil
	case DriverFile:
		return filekv.Open(cfg.Path)
	case DriverSQLite:
		return sqlkv.OpenSQLite(ctx, cfg.Path)
	case DriverRedis:
		return rediskv.Open(ctx, rediskv.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case DriverPostgres:
		return sqlkv.OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.Driver)
	}
}

// sealedBackend pairs the sealing wrapper with the lifecycle of the store it wraps.
type sealedBackend struct {
	*sealedkv.Store
	inner store.Backend
}

func (b *sealedBackend) Close() error {
	return b.inner.Close()
}
