package mocks

import (
	"context"
	"sync"

	"github.com/masadev/pscheduler/internal/events"
)

// MockEventEmitter implements events.EventEmitter for testing.
// It records every emitted event so tests can assert on what was published.
type MockEventEmitter struct {
	mu     sync.Mutex
	Events []*events.TaskCompletedEvent

	// EmitEventFn overrides the default recording behavior when set
	EmitEventFn func(ctx context.Context, event *events.TaskCompletedEvent) error

	// EmitError is returned by the default implementation when set
	EmitError error
}

// NewMockEventEmitter creates a new mock emitter with no recorded events
func NewMockEventEmitter() *MockEventEmitter {
	return &MockEventEmitter{}
}

// EmitEvent implements the EventEmitter interface
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskCompletedEvent) error {
	if m.EmitEventFn != nil {
		return m.EmitEventFn(ctx, event)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EmitError != nil {
		return m.EmitError
	}

	m.Events = append(m.Events, event)
	return nil
}

// EmittedEvents returns a copy of the recorded events
func (m *MockEventEmitter) EmittedEvents() []*events.TaskCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]*events.TaskCompletedEvent, len(m.Events))
	copy(copied, m.Events)
	return copied
}
