package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/events"
	"github.com/phrazzld/medinodus/internal/platform/metrics"
	"github.com/phrazzld/medinodus/internal/redact"
	"github.com/phrazzld/medinodus/internal/remote"
	"github.com/phrazzld/medinodus/internal/store"
	"github.com/phrazzld/medinodus/internal/task"
)

// TaskTypeMedicalPush identifies queued medical profile pushes.
const TaskTypeMedicalPush = "medical_push"

// UpdateMedicalInfo merges patch over the current medical profile, persists
// the result and, when a session is active, queues a push of the merged
// record to the backend. Pushes are sent in the order of the updates that
// queued them. Persistence and push failures are logged, never returned; the
// local value stays authoritative.
func (c *Container) UpdateMedicalInfo(ctx context.Context, patch domain.MedicalPatch) {
	if patch.Empty() {
		return
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.mu.Lock()
	merged := c.snap.Medical.Apply(patch)
	c.snap.Medical = merged
	c.medicalGen++
	token := c.snap.Session.Token
	c.mu.Unlock()

	c.writeJSON(context.WithoutCancel(ctx), store.KeyMedicalInfo, merged)

	if token == "" {
		c.logger.Debug("no active session, medical update kept local")
		return
	}
	c.enqueuePush(token, merged)
}

// enqueuePush hands a push to the serial queue. Callers hold sessionMu so
// that queue order equals mutation order.
func (c *Container) enqueuePush(token string, profile domain.MedicalProfile) {
	t := &pushTask{
		id:      uuid.New(),
		c:       c,
		token:   token,
		history: remote.MedicalHistoryFromProfile(profile),
	}

	c.pushes.Add(1)
	if err := c.queue.Enqueue(t); err != nil {
		c.pushes.Done()
		c.metrics.Sync(metrics.DirectionPush, metrics.ResultDropped)
		c.logger.Warn("medical push dropped, local value kept", "error", redact.Error(err))
	}
}

// pushTask sends one merged medical record to the backend.
type pushTask struct {
	id      uuid.UUID
	c       *Container
	token   string
	history remote.MedicalHistory
}

func (t *pushTask) ID() uuid.UUID { return t.id }

func (t *pushTask) Type() string { return TaskTypeMedicalPush }

// Execute sends the record unless the session it was queued under has ended.
func (t *pushTask) Execute(ctx context.Context) error {
	defer t.c.pushes.Done()

	if t.c.currentToken() != t.token {
		t.c.metrics.Sync(metrics.DirectionPush, metrics.ResultStale)
		t.c.logger.Debug("discarding medical push queued under a previous session")
		return nil
	}

	if err := t.c.medical.UpdateMedicalHistory(ctx, t.token, t.history); err != nil {
		return fmt.Errorf("push medical profile: %w", err)
	}
	t.c.metrics.Sync(metrics.DirectionPush, metrics.ResultOK)
	return nil
}

// pushFailed is the worker pool's error handler. The local value is kept
// and nothing is retried.
func (c *Container) pushFailed(t task.Task, err error) {
	c.metrics.Sync(metrics.DirectionPush, metrics.ResultError)
	var apiErr *remote.APIError
	temporary := errors.As(err, &apiErr) && apiErr.IsTemporary()
	c.logger.Warn("medical push failed, local value kept",
		"task_id", t.ID(),
		"temporary", temporary,
		"error", redact.Error(err))
}

// medicalSync pulls the medical profile whenever a session starts.
type medicalSync struct {
	c *Container
}

// HandleEvent implements events.EventHandler. Only session.started is
// acted on; the fetch runs in the background, tagged with the token and the
// revision the session was committed at.
func (s *medicalSync) HandleEvent(_ context.Context, event *events.Event) error {
	if event.Type != events.TypeSessionStarted || event.Token == "" {
		return nil
	}
	token, rev := event.Token, event.Revision
	s.c.goBackground(func() { s.c.pull(token, rev) })
	return nil
}

// pull fetches the remote record and applies it only if the session is
// still token and no local medical change has been committed since rev.
func (c *Container) pull(token string, rev uint64) {
	history, err := c.medical.GetMedicalHistory(context.Background(), token)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			c.metrics.Sync(metrics.DirectionPull, metrics.ResultEmpty)
			c.logger.Debug("no remote medical record yet")
			return
		}
		c.metrics.Sync(metrics.DirectionPull, metrics.ResultError)
		c.logger.Warn("medical profile pull failed, keeping local copy", "error", redact.Error(err))
		return
	}
	profile := history.ToProfile()

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.mu.Lock()
	if c.snap.Session.Token != token || c.medicalGen != rev {
		c.mu.Unlock()
		c.metrics.Sync(metrics.DirectionPull, metrics.ResultStale)
		c.logger.Debug("discarding stale medical profile pull")
		return
	}
	c.snap.Medical = profile
	c.mu.Unlock()

	c.writeJSON(context.Background(), store.KeyMedicalInfo, profile)
	c.metrics.Sync(metrics.DirectionPull, metrics.ResultOK)
	c.logger.Debug("medical profile pulled")
}
