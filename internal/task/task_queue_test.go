package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcTask is a Task backed by a function.
type funcTask struct {
	id       uuid.UUID
	taskType string
	fn       func(ctx context.Context) error
}

func newFuncTask(taskType string, fn func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), taskType: taskType, fn: fn}
}

func (t *funcTask) ID() uuid.UUID { return t.id }

func (t *funcTask) Type() string { return t.taskType }

func (t *funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func noopTask() Task {
	return newFuncTask("noop", func(context.Context) error { return nil })
}

func TestNewTaskQueue(t *testing.T) {
	queue := NewTaskQueue(10, setupTestLogger())
	assert.Equal(t, 10, cap(queue.tasks))
	assert.False(t, queue.closed)

	// Non-positive sizes are raised to 1
	queue = NewTaskQueue(0, nil)
	assert.Equal(t, 1, cap(queue.tasks))
}

func TestEnqueue(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())

	require.NoError(t, queue.Enqueue(noopTask()))
	require.NoError(t, queue.Enqueue(noopTask()))
	assert.Equal(t, 2, queue.Len())

	err := queue.Enqueue(noopTask())
	assert.True(t, errors.Is(err, ErrQueueFull), "expected ErrQueueFull, got %v", err)
}

func TestEnqueueAfterClose(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())
	require.NoError(t, queue.Enqueue(noopTask()))

	queue.Close()
	queue.Close() // idempotent

	assert.Equal(t, ErrQueueClosed, queue.Enqueue(noopTask()))

	// The task queued before Close is still readable
	_, ok := <-queue.GetChannel()
	assert.True(t, ok)
	_, ok = <-queue.GetChannel()
	assert.False(t, ok)
}

func TestConcurrentEnqueueAndClose(t *testing.T) {
	queue := NewTaskQueue(100, setupTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := queue.Enqueue(noopTask())
			if err != nil {
				assert.Equal(t, ErrQueueClosed, err)
			}
		}()
	}
	queue.Close()
	wg.Wait()
}
