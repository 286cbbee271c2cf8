package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/phrazzld/medinodus/internal/config"
	"github.com/phrazzld/medinodus/internal/haptic"
	"github.com/phrazzld/medinodus/internal/platform/kvstore"
	"github.com/phrazzld/medinodus/internal/platform/metrics"
	"github.com/phrazzld/medinodus/internal/remote"
	"github.com/phrazzld/medinodus/internal/state"
	"github.com/phrazzld/medinodus/internal/store"
)

// app holds the wired dependencies of one invocation.
type app struct {
	container *state.Container
	backend   store.Backend
}

// newApp opens the configured store, builds the remote client and creates
// the state container on top of them.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*app, error) {
	backend, err := kvstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	client, err := remote.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, log)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	container, err := state.New(state.Deps{
		Store:    backend,
		Auth:     client,
		Medical:  client,
		Notifier: haptic.NewLogNotifier(log),
		Logger:   log,
		Metrics:  metrics.New(reg),
	}, state.Options{
		QueueSize:         cfg.Sync.QueueSize,
		InvalidateExpired: cfg.Session.InvalidateExpired,
	})
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to create state container: %w", err)
	}

	return &app{container: container, backend: backend}, nil
}

// close stops the container before releasing the store it writes to.
// Queued pushes are sent unless ctx ends first.
func (a *app) close(ctx context.Context) error {
	return errors.Join(a.container.Shutdown(ctx), a.backend.Close())
}
