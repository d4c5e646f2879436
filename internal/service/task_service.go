package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/events"
	"github.com/masadev/pscheduler/internal/store"
)

// TaskCreation carries the caller-supplied fields for a new task.
// Priority defaults to medium when empty; everything except Title and
// Deadline is optional.
type TaskCreation struct {
	Title             string
	Description       string
	Deadline          time.Time
	Priority          domain.TaskPriority
	IsRecurring       bool
	RecurrencePattern domain.RecurrencePattern
	Tags              string
}

// TaskUpdate describes a partial update to an existing task. Nil fields are
// left untouched. Setting Status to completed also stamps the completion
// time, but updates never emit completion events; only the explicit
// completion operations do.
type TaskUpdate struct {
	Title             *string
	Description       *string
	Status            *domain.TaskStatus
	Priority          *domain.TaskPriority
	Deadline          *time.Time
	IsRecurring       *bool
	RecurrencePattern *domain.RecurrencePattern
	Tags              *string
}

// TaskService provides task-related operations scoped to a single owner.
// Every method takes the authenticated user's ID; tasks owned by other
// users are reported as not found, never as forbidden.
type TaskService interface {
	// CreateTask creates a new pending task for the user
	CreateTask(ctx context.Context, userID uuid.UUID, params TaskCreation) (*domain.Task, error)

	// GetTask retrieves a single task owned by the user
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves all tasks owned by the user
	ListTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListTasksByStatus retrieves the user's tasks with the given status
	ListTasksByStatus(
		ctx context.Context,
		userID uuid.UUID,
		status domain.TaskStatus,
	) ([]*domain.Task, error)

	// ListTasksByPriority retrieves the user's tasks with the given priority
	ListTasksByPriority(
		ctx context.Context,
		userID uuid.UUID,
		priority domain.TaskPriority,
	) ([]*domain.Task, error)

	// ListTasksByDateRange retrieves the user's tasks whose deadline falls
	// within [start, end], ordered by deadline
	ListTasksByDateRange(
		ctx context.Context,
		userID uuid.UUID,
		start, end time.Time,
	) ([]*domain.Task, error)

	// ListOverdueTasks retrieves the user's tasks whose deadline is strictly
	// before referenceTime and that are neither completed nor cancelled
	ListOverdueTasks(
		ctx context.Context,
		userID uuid.UUID,
		referenceTime time.Time,
	) ([]*domain.Task, error)

	// UpdateTask applies a partial update to a task owned by the user
	UpdateTask(
		ctx context.Context,
		userID, taskID uuid.UUID,
		update TaskUpdate,
	) (*domain.Task, error)

	// CompleteTask marks a task completed. Completing an already-completed
	// task is a no-op that returns the task unchanged.
	CompleteTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// CompleteTasks marks a batch of tasks completed atomically. If any ID
	// is missing or owned by another user, nothing is modified.
	CompleteTasks(
		ctx context.Context,
		userID uuid.UUID,
		taskIDs []uuid.UUID,
	) ([]*domain.Task, error)

	// DeleteTask removes a task owned by the user
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error

	// CountTasksByStatus counts the user's tasks with the given status
	CountTasksByStatus(
		ctx context.Context,
		userID uuid.UUID,
		status domain.TaskStatus,
	) (int64, error)
}

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "complete_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// It returns known sentinel errors directly without wrapping.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	// Check for service-defined sentinel errors
	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrUserNotFound) {
		return err
	}

	// Check for store-level sentinel errors that should be mapped to service-level ones
	if errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotFound
	}

	// Validation errors pass through so the API layer can surface them
	if errors.Is(err, domain.ErrValidation) {
		return err
	}

	// If not a sentinel to be returned directly, wrap it
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	db           *sql.DB
	taskStore    store.TaskStore
	userStore    store.UserStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	db *sql.DB,
	taskStore store.TaskStore,
	userStore store.UserStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "db cannot be nil",
		}
	}
	if taskStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
		}
	}
	if userStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "userStore cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:           db,
		taskStore:    taskStore,
		userStore:    userStore,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "task_service"),
	}, nil
}

// CreateTask creates a new task with pending status for the user.
// Uses a transaction for the creation to keep the write path uniform.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	params TaskCreation,
) (*domain.Task, error) {
	if _, err := s.userStore.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, NewTaskServiceError("create_task", "failed to retrieve user", err)
	}

	task, err := domain.NewTask(
		userID,
		params.Title,
		params.Description,
		params.Deadline,
		params.Priority,
	)
	if err != nil {
		s.logger.Error("failed to create task object",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("create_task", "failed to create task object", err)
	}

	task.IsRecurring = params.IsRecurring
	task.RecurrencePattern = params.RecurrencePattern
	task.Tags = params.Tags
	if err := task.Validate(); err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)
		if err := txStore.Create(ctx, task); err != nil {
			s.logger.Error("failed to create task in transaction",
				"error", err,
				"user_id", userID,
				"task_id", task.ID)
			return NewTaskServiceError("create_task", "failed to save task to database", err)
		}
		return nil
	})

	if err != nil {
		// Error is already wrapped in the transaction
		return nil, err
	}

	s.logger.Info("task created successfully",
		"task_id", task.ID,
		"user_id", userID,
		"priority", task.Priority)

	return task, nil
}

// GetTask retrieves a single task. A task owned by another user is
// reported as not found.
func (s *taskServiceImpl) GetTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByIDAndUser(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			s.logger.Debug("task not found",
				"task_id", taskID,
				"user_id", userID)
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task",
			"error", err,
			"task_id", taskID)
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}

	return task, nil
}

// ListTasks retrieves all tasks owned by the user.
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	tasks, err := s.taskStore.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListTasksByStatus retrieves the user's tasks with the given status.
func (s *taskServiceImpl) ListTasksByStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	if !domain.IsValidTaskStatus(status) {
		return nil, domain.NewValidationError("status", "invalid task status", domain.ErrValidation)
	}

	tasks, err := s.taskStore.FindByUserAndStatus(ctx, userID, status)
	if err != nil {
		s.logger.Error("failed to list tasks by status",
			"error", err,
			"user_id", userID,
			"status", status)
		return nil, NewTaskServiceError("list_tasks_by_status", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListTasksByPriority retrieves the user's tasks with the given priority.
func (s *taskServiceImpl) ListTasksByPriority(
	ctx context.Context,
	userID uuid.UUID,
	priority domain.TaskPriority,
) ([]*domain.Task, error) {
	if !domain.IsValidTaskPriority(priority) {
		return nil, domain.NewValidationError(
			"priority",
			"invalid task priority",
			domain.ErrValidation,
		)
	}

	tasks, err := s.taskStore.FindByUserAndPriority(ctx, userID, priority)
	if err != nil {
		s.logger.Error("failed to list tasks by priority",
			"error", err,
			"user_id", userID,
			"priority", priority)
		return nil, NewTaskServiceError("list_tasks_by_priority", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListTasksByDateRange retrieves the user's tasks with deadlines inside the
// inclusive [start, end] window, ordered by deadline.
func (s *taskServiceImpl) ListTasksByDateRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	tasks, err := s.taskStore.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("failed to list tasks by date range",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("list_tasks_by_date_range", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListOverdueTasks retrieves tasks past their deadline at referenceTime.
// Completed and cancelled tasks are excluded; a deadline exactly equal to
// the reference time is not overdue.
func (s *taskServiceImpl) ListOverdueTasks(
	ctx context.Context,
	userID uuid.UUID,
	referenceTime time.Time,
) ([]*domain.Task, error) {
	tasks, err := s.taskStore.FindOverdue(ctx, userID, referenceTime)
	if err != nil {
		s.logger.Error("failed to list overdue tasks",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("list_overdue_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update inside a transaction. Setting the
// status to completed stamps CompletedAt but emits no completion event;
// notification is reserved for the explicit completion operations.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		task, err := txStore.GetByIDAndUser(ctx, taskID, userID)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return ErrTaskNotFound
			}
			return NewTaskServiceError("update_task", "failed to retrieve task", err)
		}

		applyTaskUpdate(task, update)
		task.UpdatedAt = time.Now().UTC()

		if err := task.Validate(); err != nil {
			return NewTaskServiceError("update_task", "invalid task after update", err)
		}

		if err := txStore.Update(ctx, task); err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return ErrTaskNotFound
			}
			return NewTaskServiceError("update_task", "failed to save task", err)
		}

		updated = task
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated successfully",
		"task_id", taskID,
		"user_id", userID,
		"status", updated.Status)

	return updated, nil
}

// applyTaskUpdate copies the non-nil fields of update onto task. A status
// transition into completed sets the completion timestamp; transitions out
// of completed leave it in place as a historical record.
func applyTaskUpdate(task *domain.Task, update TaskUpdate) {
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		if *update.Status == domain.TaskStatusCompleted &&
			task.Status != domain.TaskStatusCompleted {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.Deadline != nil {
		task.Deadline = *update.Deadline
	}
	if update.IsRecurring != nil {
		task.IsRecurring = *update.IsRecurring
	}
	if update.RecurrencePattern != nil {
		task.RecurrencePattern = *update.RecurrencePattern
	}
	if update.Tags != nil {
		task.Tags = *update.Tags
	}
}

// CompleteTask marks a task completed and emits a completion event.
// Completing an already-completed task is idempotent: the stored row is
// left untouched, no event is emitted, and the current state is returned.
func (s *taskServiceImpl) CompleteTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
) (*domain.Task, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, NewTaskServiceError("complete_task", "failed to retrieve user", err)
	}

	var (
		task           *domain.Task
		newlyCompleted bool
	)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		t, err := txStore.GetByIDAndUser(ctx, taskID, userID)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return ErrTaskNotFound
			}
			return NewTaskServiceError("complete_task", "failed to retrieve task", err)
		}

		if t.Status == domain.TaskStatusCompleted {
			s.logger.Debug("task already completed, skipping",
				"task_id", taskID,
				"user_id", userID)
			task = t
			return nil
		}

		t.MarkCompleted(time.Now().UTC())

		if err := txStore.Update(ctx, t); err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return ErrTaskNotFound
			}
			return NewTaskServiceError("complete_task", "failed to save task", err)
		}

		task = t
		newlyCompleted = true
		return nil
	})

	if err != nil {
		return nil, err
	}

	if newlyCompleted {
		s.logger.Info("task completed successfully",
			"task_id", taskID,
			"user_id", userID)
		s.emitCompletionEvent(ctx, user, []*domain.Task{task})
	}

	return task, nil
}

// CompleteTasks marks a batch of tasks completed in a single transaction.
// If any requested ID is missing or owned by another user, the whole batch
// is rejected with ErrTaskNotFound and nothing is modified. A single event
// carrying the full batch, already-completed tasks included, is emitted
// after the transaction commits.
func (s *taskServiceImpl) CompleteTasks(
	ctx context.Context,
	userID uuid.UUID,
	taskIDs []uuid.UUID,
) ([]*domain.Task, error) {
	if len(taskIDs) == 0 {
		return []*domain.Task{}, nil
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, NewTaskServiceError("complete_tasks", "failed to retrieve user", err)
	}

	var tasks []*domain.Task

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		found, err := txStore.FindAllByIDsAndUser(ctx, taskIDs, userID)
		if err != nil {
			return NewTaskServiceError("complete_tasks", "failed to retrieve tasks", err)
		}

		if len(found) != len(taskIDs) {
			s.logger.Debug("bulk completion rejected, some tasks missing",
				"user_id", userID,
				"requested", len(taskIDs),
				"found", len(found))
			return ErrTaskNotFound
		}

		now := time.Now().UTC()
		var modified []*domain.Task
		for _, t := range found {
			if t.Status == domain.TaskStatusCompleted {
				continue
			}
			t.MarkCompleted(now)
			modified = append(modified, t)
		}

		if len(modified) > 0 {
			if err := txStore.UpdateAll(ctx, modified); err != nil {
				return NewTaskServiceError("complete_tasks", "failed to save tasks", err)
			}
		}

		tasks = found
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("tasks completed successfully",
		"user_id", userID,
		"task_count", len(tasks))
	s.emitCompletionEvent(ctx, user, tasks)

	return tasks, nil
}

// DeleteTask removes a task owned by the user.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		if err := txStore.Delete(ctx, taskID, userID); err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				s.logger.Debug("attempted to delete non-existent task",
					"task_id", taskID,
					"user_id", userID)
				return ErrTaskNotFound
			}
			return NewTaskServiceError("delete_task", "failed to delete task", err)
		}
		return nil
	})

	if err != nil {
		return err
	}

	s.logger.Info("task deleted successfully",
		"task_id", taskID,
		"user_id", userID)
	return nil
}

// CountTasksByStatus counts the user's tasks with the given status.
func (s *taskServiceImpl) CountTasksByStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) (int64, error) {
	if !domain.IsValidTaskStatus(status) {
		return 0, domain.NewValidationError("status", "invalid task status", domain.ErrValidation)
	}

	count, err := s.taskStore.CountByUserAndStatus(ctx, userID, status)
	if err != nil {
		s.logger.Error("failed to count tasks by status",
			"error", err,
			"user_id", userID,
			"status", status)
		return 0, NewTaskServiceError("count_tasks_by_status", "failed to count tasks", err)
	}
	return count, nil
}

// emitCompletionEvent publishes a TaskCompletedEvent after a successful
// commit. Emission is best-effort: handler failures are logged and never
// propagated, since the completion itself is already durable.
func (s *taskServiceImpl) emitCompletionEvent(
	ctx context.Context,
	user *domain.User,
	tasks []*domain.Task,
) {
	event := events.NewTaskCompletedEvent(user.ID, user.Username, tasks)
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit task completed event",
			"error", err,
			"event_id", event.ID,
			"user_id", user.ID,
			"task_count", len(tasks))
	}
}
