// Package metrics holds the Prometheus counters recorded by the state
// container. Counters are registered on a caller-supplied registerer so tests
// and embedding hosts can each use their own registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sync directions
const (
	DirectionPull = "pull"
	DirectionPush = "push"
)

// Sync results
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultStale   = "stale"
	ResultEmpty   = "empty"
	ResultDropped = "dropped"
)

// Recorder groups the container's counters.
type Recorder struct {
	// storageErrors counts failed store reads, writes and decodes.
	//
	// Labels: op (get, set, remove, decode)
	storageErrors *prometheus.CounterVec

	// syncTotal counts medical profile pulls and pushes by outcome.
	//
	// Labels: direction (pull, push), result (ok, error, stale, empty, dropped)
	syncTotal *prometheus.CounterVec

	// authAttempts counts login, register and logout calls by outcome.
	//
	// Labels: action (login, register, logout), result (success, failure)
	authAttempts *prometheus.CounterVec
}

// New creates a Recorder and registers its counters on reg.
// A nil reg gets a fresh private registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		storageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medinodus_storage_errors_total",
				Help: "Total number of failed persistent store operations",
			},
			[]string{"op"},
		),
		syncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medinodus_sync_total",
				Help: "Total number of medical profile sync attempts",
			},
			[]string{"direction", "result"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medinodus_auth_attempts_total",
				Help: "Total number of remote authentication calls",
			},
			[]string{"action", "result"},
		),
	}

	reg.MustRegister(r.storageErrors, r.syncTotal, r.authAttempts)
	return r
}

// StorageError records a failed store operation.
func (r *Recorder) StorageError(op string) {
	r.storageErrors.WithLabelValues(op).Inc()
}

// Sync records one pull or push outcome.
func (r *Recorder) Sync(direction, result string) {
	r.syncTotal.WithLabelValues(direction, result).Inc()
}

// AuthAttempt records the outcome of a remote auth call.
func (r *Recorder) AuthAttempt(action string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.authAttempts.WithLabelValues(action, result).Inc()
}

// StorageErrors returns the storage error counter, for tests.
func (r *Recorder) StorageErrors() *prometheus.CounterVec { return r.storageErrors }

// SyncTotal returns the sync counter, for tests.
func (r *Recorder) SyncTotal() *prometheus.CounterVec { return r.syncTotal }

// AuthAttempts returns the auth counter, for tests.
func (r *Recorder) AuthAttempts() *prometheus.CounterVec { return r.authAttempts }
