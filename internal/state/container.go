package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/events"
	"github.com/phrazzld/medinodus/internal/haptic"
	"github.com/phrazzld/medinodus/internal/platform/metrics"
	"github.com/phrazzld/medinodus/internal/remote"
	"github.com/phrazzld/medinodus/internal/store"
	"github.com/phrazzld/medinodus/internal/task"
)

// DefaultQueueSize is the push queue capacity used when Options.QueueSize is zero.
const DefaultQueueSize = 64

// Deps are the collaborators of a Container. Store, Auth and Medical are
// required; the rest have defaults.
type Deps struct {
	Store    store.KVStore
	Auth     remote.AuthService
	Medical  remote.MedicalService
	Notifier haptic.Notifier
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
	// Events receives session.started and session.ended. Hosts may register
	// their own handlers on it before calling Load.
	Events *events.InMemoryEventEmitter
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Options tune a Container.
type Options struct {
	// QueueSize bounds the number of medical pushes waiting to be sent.
	QueueSize int
	// InvalidateExpired drops a restored session whose JWT has expired.
	InvalidateExpired bool
}

// Snapshot is a read-only view of the container. Values returned by
// Container.Snapshot are copies; changing them has no effect on the container.
type Snapshot struct {
	Session     domain.Session
	Preferences domain.Preferences
	// Profile is nil while no session is active. A restored session whose
	// stored profile could not be read gets one built from the token subject;
	// its Email is empty when the token has no subject.
	Profile *domain.UserProfile
	Medical domain.MedicalProfile
	Reports []domain.Report
	// Loading is true until Load has finished.
	Loading bool
}

// Container is the state container. Create it with New.
type Container struct {
	store    store.KVStore
	auth     remote.AuthService
	medical  remote.MedicalService
	notifier haptic.Notifier
	logger   *slog.Logger
	metrics  *metrics.Recorder
	events   *events.InMemoryEventEmitter
	now      func() time.Time

	invalidateExpired bool

	// mu guards snap and medicalGen. It is never held across I/O.
	mu   sync.RWMutex
	snap Snapshot
	// medicalGen counts local medical mutations so a pull that started
	// before one can tell it has been superseded.
	medicalGen uint64

	// sessionMu serializes writes of session-scoped data (session, profile,
	// medical profile) so memory and store are updated in the same order.
	// It is held across store writes but never across remote calls.
	sessionMu sync.Mutex
	// reportsMu keeps persisted report lists in append order.
	reportsMu sync.Mutex
	// prefMu serializes background preference writes.
	prefMu sync.Mutex

	loaded atomic.Bool
	ready  chan struct{}

	queue  *task.TaskQueue
	pool   *task.WorkerPool
	bg     sync.WaitGroup
	pushes sync.WaitGroup

	closeOnce sync.Once
}

// New creates a Container in the loading state and starts its push worker.
func New(deps Deps, opts Options) (*Container, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Auth == nil:
		return nil, fmt.Errorf("%w: auth service", ErrMissingDependency)
	case deps.Medical == nil:
		return nil, fmt.Errorf("%w: medical service", ErrMissingDependency)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = haptic.Nop{}
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.New(nil)
	}
	emitter := deps.Events
	if emitter == nil {
		emitter = events.NewInMemoryEventEmitter(logger)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	c := &Container{
		store:             deps.Store,
		auth:              deps.Auth,
		medical:           deps.Medical,
		notifier:          notifier,
		logger:            logger.With("component", "state"),
		metrics:           recorder,
		events:            emitter,
		now:               now,
		invalidateExpired: opts.InvalidateExpired,
		snap: Snapshot{
			Preferences: domain.DefaultPreferences(),
			Reports:     []domain.Report{},
			Loading:     true,
		},
		ready: make(chan struct{}),
	}

	pushLog := logger.With("component", "medical_push")
	c.queue = task.NewTaskQueue(queueSize, pushLog)
	c.pool = task.NewWorkerPool(c.queue, task.DefaultWorkerPoolConfig(), pushLog)
	c.pool.SetErrorHandler(c.pushFailed)
	c.pool.Start()

	c.events.RegisterHandler(&medicalSync{c: c})

	return c, nil
}

// Snapshot returns a deep copy of the current state.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.snap
	if c.snap.Profile != nil {
		p := *c.snap.Profile
		s.Profile = &p
	}
	s.Reports = make([]domain.Report, len(c.snap.Reports))
	for i, r := range c.snap.Reports {
		s.Reports[i] = r.Clone()
	}
	return s
}

// Ready is closed once Load has populated the snapshot.
func (c *Container) Ready() <-chan struct{} {
	return c.ready
}

// WaitIdle blocks until background pulls, preference writes and queued
// pushes have finished.
func (c *Container) WaitIdle() {
	c.bg.Wait()
	c.pushes.Wait()
}

// Close is Shutdown without a deadline.
func (c *Container) Close() error {
	return c.Shutdown(context.Background())
}

// Shutdown waits for background pulls and preference writes, stops accepting
// pushes and sends the ones already queued. If ctx ends first, the push in
// flight is cancelled, the rest are dropped and ctx.Err() is returned. The
// store is not closed; it belongs to the caller. Only the first call has an
// effect.
func (c *Container) Shutdown(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.bg.Wait()
		pending := c.queue.Len()
		c.queue.Close()

		drained := make(chan struct{})
		go func() {
			c.pool.Wait()
			close(drained)
		}()

		select {
		case <-drained:
		case <-ctx.Done():
			c.pool.Stop()
			dropped := c.discardQueued()
			c.logger.Warn("shutdown interrupted, queued medical pushes dropped", "dropped", dropped)
			err = ctx.Err()
		}
		c.logger.Debug("state container closed", "pending_pushes", pending)
	})
	return err
}

// discardQueued empties a closed push queue whose workers have stopped.
func (c *Container) discardQueued() int {
	n := 0
	for range c.queue.GetChannel() {
		c.pushes.Done()
		c.metrics.Sync(metrics.DirectionPush, metrics.ResultDropped)
		n++
	}
	return n
}

func (c *Container) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Session.Token
}

// goBackground runs fn in a goroutine tracked by WaitIdle and Close.
func (c *Container) goBackground(fn func()) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn()
	}()
}
