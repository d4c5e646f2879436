package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/domain"
)

// TaskStore defines the interface for task data persistence.
//
// Every read is scoped by the owning user. Ownership and existence are
// checked by a single fused query predicate (id AND owner), so a task owned
// by another user is indistinguishable from a task that does not exist.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByIDAndUser retrieves a task by its ID, scoped to the given owner.
	// Returns ErrTaskNotFound if no task with that ID is owned by the user.
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// FindByUser retrieves all tasks owned by the given user, in storage order.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// FindByUserAndStatus retrieves the user's tasks with the given status.
	FindByUserAndStatus(
		ctx context.Context,
		userID uuid.UUID,
		status domain.TaskStatus,
	) ([]*domain.Task, error)

	// FindByUserAndPriority retrieves the user's tasks with the given priority.
	FindByUserAndPriority(
		ctx context.Context,
		userID uuid.UUID,
		priority domain.TaskPriority,
	) ([]*domain.Task, error)

	// FindByUserAndDateRange retrieves the user's tasks whose deadline falls
	// within [start, end], ordered by deadline ascending.
	FindByUserAndDateRange(
		ctx context.Context,
		userID uuid.UUID,
		start, end time.Time,
	) ([]*domain.Task, error)

	// FindOverdue retrieves the user's tasks that are overdue relative to
	// the given reference time: deadline strictly before referenceTime and
	// status neither completed nor cancelled. A deadline equal to the
	// reference time is not overdue.
	FindOverdue(
		ctx context.Context,
		userID uuid.UUID,
		referenceTime time.Time,
	) ([]*domain.Task, error)

	// FindAllByIDsAndUser retrieves the subset of the given task IDs that
	// exist and are owned by the user. The caller is responsible for
	// comparing the result cardinality against the requested ID set.
	FindAllByIDsAndUser(
		ctx context.Context,
		ids []uuid.UUID,
		userID uuid.UUID,
	) ([]*domain.Task, error)

	// Update saves changes to an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateAll saves changes to a batch of tasks. Callers needing atomicity
	// must run it within a transaction via WithTx and RunInTransaction.
	UpdateAll(ctx context.Context, tasks []*domain.Task) error

	// Delete removes a task from the store by its ID, scoped to the owner.
	// Returns ErrTaskNotFound if no task with that ID is owned by the user.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// CountByUserAndStatus counts the user's tasks with the given status.
	CountByUserAndStatus(
		ctx context.Context,
		userID uuid.UUID,
		status domain.TaskStatus,
	) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller,
	// typically via RunInTransaction.
	WithTx(tx *sql.Tx) TaskStore
}
