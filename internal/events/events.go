package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/domain"
)

// TaskCompletedEvent is published whenever one or more tasks are marked
// completed through the service layer. For bulk completions a single event
// carries the whole batch, including tasks that were already completed
// before the call.
type TaskCompletedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// UserID identifies the owner of the completed tasks
	UserID uuid.UUID `json:"user_id"`

	// Username is the owner's username, carried for listeners that log
	// or notify without a user lookup
	Username string `json:"username"`

	// Tasks holds the completed tasks in their post-completion state
	Tasks []*domain.Task `json:"tasks"`

	// OccurredAt is the timestamp when the event was created
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskCompletedEvent creates a completion event for the given tasks.
func NewTaskCompletedEvent(
	userID uuid.UUID,
	username string,
	tasks []*domain.Task,
) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Username:   username,
		Tasks:      tasks,
		OccurredAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskCompletedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskCompletedEvent) error
}
