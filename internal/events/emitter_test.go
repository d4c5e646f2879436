package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masadev/pscheduler/internal/domain"
)

// recordingHandler captures events it receives and optionally fails.
type recordingHandler struct {
	received []*TaskCompletedEvent
	err      error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *TaskCompletedEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(t *testing.T) *TaskCompletedEvent {
	t.Helper()

	userID := uuid.New()
	task, err := domain.NewTask(userID, "Write report", "", time.Now().UTC().Add(time.Hour), "")
	require.NoError(t, err)
	task.MarkCompleted(time.Now().UTC())

	return NewTaskCompletedEvent(userID, "alice", []*domain.Task{task})
}

func TestNewTaskCompletedEvent(t *testing.T) {
	event := testEvent(t)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "alice", event.Username)
	assert.Len(t, event.Tasks, 1)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestEmitEvent_DeliversToAllHandlers(t *testing.T) {
	emitter := NewInMemoryEventEmitter(discardLogger())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := testEvent(t)
	err := emitter.EmitEvent(context.Background(), event)

	require.NoError(t, err)
	require.Len(t, first.received, 1)
	require.Len(t, second.received, 1)
	assert.Equal(t, event.ID, first.received[0].ID)
}

func TestEmitEvent_NoHandlers(t *testing.T) {
	emitter := NewInMemoryEventEmitter(discardLogger())

	err := emitter.EmitEvent(context.Background(), testEvent(t))

	assert.NoError(t, err)
}

func TestEmitEvent_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	emitter := NewInMemoryEventEmitter(discardLogger())
	failErr := errors.New("handler failed")
	failing := &recordingHandler{err: failErr}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	err := emitter.EmitEvent(context.Background(), testEvent(t))

	// The first error is reported, but every handler still ran
	assert.Equal(t, failErr, err)
	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1)
}

func TestCompletionListener_HandleEvent(t *testing.T) {
	listener := NewCompletionListener(discardLogger())

	err := listener.HandleEvent(context.Background(), testEvent(t))

	assert.NoError(t, err)
}
