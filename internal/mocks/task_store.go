package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/store"
)

// MockTaskStore implements store.TaskStore for testing
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn                 func(ctx context.Context, task *domain.Task) error
	GetByIDAndUserFn         func(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)
	FindByUserFn             func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	FindByUserAndStatusFn    func(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error)
	FindByUserAndPriorityFn  func(ctx context.Context, userID uuid.UUID, priority domain.TaskPriority) ([]*domain.Task, error)
	FindByUserAndDateRangeFn func(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.Task, error)
	FindOverdueFn            func(ctx context.Context, userID uuid.UUID, referenceTime time.Time) ([]*domain.Task, error)
	FindAllByIDsAndUserFn    func(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*domain.Task, error)
	UpdateFn                 func(ctx context.Context, task *domain.Task) error
	UpdateAllFn              func(ctx context.Context, tasks []*domain.Task) error
	DeleteFn                 func(ctx context.Context, id, userID uuid.UUID) error
	CountByUserAndStatusFn   func(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) (int64, error)

	// Data for default implementation, keyed by task ID
	Tasks map[uuid.UUID]*domain.Task

	// Call tracking for asserting on write paths
	UpdateCalls    []*domain.Task
	UpdateAllCalls [][]*domain.Task
}

// NewMockTaskStore creates a new mock store with initialized defaults
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// AddTask registers a task in the mock's backing map.
func (m *MockTaskStore) AddTask(task *domain.Task) {
	m.Tasks[task.ID] = task
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.Tasks[task.ID] = task
	return nil
}

// GetByIDAndUser implements the TaskStore interface
func (m *MockTaskStore) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	if m.GetByIDAndUserFn != nil {
		return m.GetByIDAndUserFn(ctx, id, userID)
	}

	task, exists := m.Tasks[id]
	if !exists || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}

	return task, nil
}

// FindByUser implements the TaskStore interface
func (m *MockTaskStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.FindByUserFn != nil {
		return m.FindByUserFn(ctx, userID)
	}

	return m.filter(func(t *domain.Task) bool {
		return t.UserID == userID
	}), nil
}

// FindByUserAndStatus implements the TaskStore interface
func (m *MockTaskStore) FindByUserAndStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	if m.FindByUserAndStatusFn != nil {
		return m.FindByUserAndStatusFn(ctx, userID, status)
	}

	return m.filter(func(t *domain.Task) bool {
		return t.UserID == userID && t.Status == status
	}), nil
}

// FindByUserAndPriority implements the TaskStore interface
func (m *MockTaskStore) FindByUserAndPriority(
	ctx context.Context,
	userID uuid.UUID,
	priority domain.TaskPriority,
) ([]*domain.Task, error) {
	if m.FindByUserAndPriorityFn != nil {
		return m.FindByUserAndPriorityFn(ctx, userID, priority)
	}

	return m.filter(func(t *domain.Task) bool {
		return t.UserID == userID && t.Priority == priority
	}), nil
}

// FindByUserAndDateRange implements the TaskStore interface
func (m *MockTaskStore) FindByUserAndDateRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	if m.FindByUserAndDateRangeFn != nil {
		return m.FindByUserAndDateRangeFn(ctx, userID, start, end)
	}

	return m.filter(func(t *domain.Task) bool {
		return t.UserID == userID && !t.Deadline.Before(start) && !t.Deadline.After(end)
	}), nil
}

// FindOverdue implements the TaskStore interface
func (m *MockTaskStore) FindOverdue(
	ctx context.Context,
	userID uuid.UUID,
	referenceTime time.Time,
) ([]*domain.Task, error) {
	if m.FindOverdueFn != nil {
		return m.FindOverdueFn(ctx, userID, referenceTime)
	}

	return m.filter(func(t *domain.Task) bool {
		return t.UserID == userID && t.IsOverdue(referenceTime)
	}), nil
}

// FindAllByIDsAndUser implements the TaskStore interface
func (m *MockTaskStore) FindAllByIDsAndUser(
	ctx context.Context,
	ids []uuid.UUID,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	if m.FindAllByIDsAndUserFn != nil {
		return m.FindAllByIDsAndUserFn(ctx, ids, userID)
	}

	found := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		if task, exists := m.Tasks[id]; exists && task.UserID == userID {
			found = append(found, task)
		}
	}

	return found, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	m.UpdateCalls = append(m.UpdateCalls, task)

	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}

	existing, exists := m.Tasks[task.ID]
	if !exists || existing.UserID != task.UserID {
		return store.ErrTaskNotFound
	}

	m.Tasks[task.ID] = task
	return nil
}

// UpdateAll implements the TaskStore interface
func (m *MockTaskStore) UpdateAll(ctx context.Context, tasks []*domain.Task) error {
	m.UpdateAllCalls = append(m.UpdateAllCalls, tasks)

	if m.UpdateAllFn != nil {
		return m.UpdateAllFn(ctx, tasks)
	}

	for _, task := range tasks {
		existing, exists := m.Tasks[task.ID]
		if !exists || existing.UserID != task.UserID {
			return store.ErrTaskNotFound
		}
		m.Tasks[task.ID] = task
	}

	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id, userID)
	}

	task, exists := m.Tasks[id]
	if !exists || task.UserID != userID {
		return store.ErrTaskNotFound
	}

	delete(m.Tasks, id)
	return nil
}

// CountByUserAndStatus implements the TaskStore interface
func (m *MockTaskStore) CountByUserAndStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) (int64, error) {
	if m.CountByUserAndStatusFn != nil {
		return m.CountByUserAndStatusFn(ctx, userID, status)
	}

	var count int64
	for _, task := range m.Tasks {
		if task.UserID == userID && task.Status == status {
			count++
		}
	}

	return count, nil
}

// WithTx implements the TaskStore interface for transaction support
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	// For mock purposes, just return the same mock
	return m
}

func (m *MockTaskStore) filter(keep func(*domain.Task) bool) []*domain.Task {
	matched := make([]*domain.Task, 0)
	for _, task := range m.Tasks {
		if keep(task) {
			matched = append(matched, task)
		}
	}
	return matched
}
