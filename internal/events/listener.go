package events

import (
	"context"
	"log/slog"
)

// CompletionListener is the default handler for TaskCompletedEvent. It logs
// the completion for audit purposes; richer integrations (webhooks, digest
// emails) would register alongside it as additional handlers.
type CompletionListener struct {
	logger *slog.Logger
}

// NewCompletionListener creates a listener that logs completed tasks.
func NewCompletionListener(logger *slog.Logger) *CompletionListener {
	return &CompletionListener{
		logger: logger.With("component", "completion_listener"),
	}
}

// Ensure CompletionListener implements EventHandler
var _ EventHandler = (*CompletionListener)(nil)

// HandleEvent logs the completed tasks. It never fails: completion
// notification is best-effort and must not disturb the write path.
func (l *CompletionListener) HandleEvent(ctx context.Context, event *TaskCompletedEvent) error {
	titles := make([]string, 0, len(event.Tasks))
	for _, t := range event.Tasks {
		titles = append(titles, t.Title)
	}

	l.logger.Info("tasks completed",
		"event_id", event.ID,
		"user_id", event.UserID,
		"username", event.Username,
		"task_count", len(event.Tasks),
		"titles", titles,
		"occurred_at", event.OccurredAt)

	return nil
}
