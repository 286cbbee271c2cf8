package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingHandler records the events it receives.
type recordingHandler struct {
	events []*Event
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *Event) error {
	h.events = append(h.events, event)
	return h.err
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		err := emitter.EmitEvent(context.Background(), NewEvent(TypeSessionStarted, "tok"))
		assert.NoError(t, err)
	})

	t.Run("handlers receive events in registration order", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		var order []string
		emitter.RegisterHandler(HandlerFunc(func(_ context.Context, _ *Event) error {
			order = append(order, "first")
			return nil
		}))
		emitter.RegisterHandler(HandlerFunc(func(_ context.Context, _ *Event) error {
			order = append(order, "second")
			return nil
		}))

		assert.NoError(t, emitter.EmitEvent(context.Background(), NewEvent(TypeSessionEnded, "")))
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("failing handler does not stop dispatch", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		failing := &recordingHandler{err: errors.New("handler error")}
		ok := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(ok)

		event := NewEvent(TypeSessionStarted, "tok")
		err := emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")

		assert.Len(t, failing.events, 1)
		assert.Len(t, ok.events, 1)
		assert.Same(t, event, ok.events[0])
	})

	t.Run("nil logger uses default", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		assert.NoError(t, emitter.EmitEvent(context.Background(), NewEvent(TypeSessionStarted, "tok")))
	})
}
