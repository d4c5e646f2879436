package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/platform/logger"
	"github.com/masadev/pscheduler/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, user_id, title, description, status, priority, deadline,
		completed_at, is_recurring, recurrence_pattern, tags, created_at, updated_at`

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the owning user doesn't exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Deadline,
		task.CompletedAt,
		task.IsRecurring,
		nullableString(string(task.RecurrencePattern)),
		task.Tags,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByIDAndUser implements store.TaskStore.GetByIDAndUser
// Existence and ownership are checked by a single fused predicate so that a
// task owned by another user is indistinguishable from a missing one.
// Returns store.ErrTaskNotFound in both cases.
func (s *PostgresTaskStore) GetByIDAndUser(
	ctx context.Context,
	id, userID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	task, err := scanTaskRow(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("task_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// FindByUser implements store.TaskStore.FindByUser
// Returns an empty slice if the user has no tasks.
func (s *PostgresTaskStore) FindByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
	`
	return s.queryTasks(ctx, "find tasks by user", query, userID)
}

// FindByUserAndStatus implements store.TaskStore.FindByUserAndStatus
func (s *PostgresTaskStore) FindByUserAndStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND status = $2
	`
	return s.queryTasks(ctx, "find tasks by status", query, userID, status)
}

// FindByUserAndPriority implements store.TaskStore.FindByUserAndPriority
func (s *PostgresTaskStore) FindByUserAndPriority(
	ctx context.Context,
	userID uuid.UUID,
	priority domain.TaskPriority,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND priority = $2
	`
	return s.queryTasks(ctx, "find tasks by priority", query, userID, priority)
}

// FindByUserAndDateRange implements store.TaskStore.FindByUserAndDateRange
func (s *PostgresTaskStore) FindByUserAndDateRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND deadline BETWEEN $2 AND $3
		ORDER BY deadline ASC
	`
	return s.queryTasks(ctx, "find tasks by date range", query, userID, start, end)
}

// FindOverdue implements store.TaskStore.FindOverdue
// The deadline comparison is strictly less-than: a task whose deadline
// equals the reference time is not overdue. Completed and cancelled tasks
// are never overdue regardless of deadline.
func (s *PostgresTaskStore) FindOverdue(
	ctx context.Context,
	userID uuid.UUID,
	referenceTime time.Time,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
			AND deadline < $2
			AND status NOT IN ($3, $4)
	`
	return s.queryTasks(ctx, "find overdue tasks", query,
		userID, referenceTime, domain.TaskStatusCompleted, domain.TaskStatusCancelled)
}

// FindAllByIDsAndUser implements store.TaskStore.FindAllByIDsAndUser
// It returns only the tasks that exist and are owned by the user; the
// caller compares the result count against the requested ID count.
func (s *PostgresTaskStore) FindAllByIDsAndUser(
	ctx context.Context,
	ids []uuid.UUID,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return []*domain.Task{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND id IN (` + strings.Join(placeholders, ", ") + `)
	`
	return s.queryTasks(ctx, "find tasks by ID set", query, args...)
}

// Update implements store.TaskStore.Update
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
			deadline = $5, completed_at = $6, is_recurring = $7,
			recurrence_pattern = $8, tags = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Deadline,
		task.CompletedAt,
		task.IsRecurring,
		nullableString(string(task.RecurrencePattern)),
		task.Tags,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// UpdateAll implements store.TaskStore.UpdateAll
// Callers needing atomicity run this within a transaction via WithTx.
func (s *PostgresTaskStore) UpdateAll(ctx context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		if err := s.Update(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements store.TaskStore.Delete
// The delete is scoped to the owning user; deleting a task owned by
// another user returns store.ErrTaskNotFound like a missing one.
func (s *PostgresTaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()),
			slog.String("user_id", userID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()))
	return nil
}

// CountByUserAndStatus implements store.TaskStore.CountByUserAndStatus
func (s *PostgresTaskStore) CountByUserAndStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = $2`

	var count int64
	err := s.db.QueryRowContext(ctx, query, userID, status).Scan(&count)
	if err != nil {
		log.Error("failed to count tasks by status",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("status", string(status)))
		return 0, err
	}

	return count, nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new store instance bound to the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// queryTasks runs a multi-row task query and scans the results.
// Returns an empty slice instead of nil when nothing matches.
func (s *PostgresTaskStore) queryTasks(
	ctx context.Context,
	operation, query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()),
				slog.String("operation", operation))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return nil, err
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return tasks, nil
}

// scanner abstracts *sql.Row and *sql.Rows for task scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var recurrence sql.NullString
	var completedAt sql.NullTime

	err := sc.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.Deadline,
		&completedAt,
		&task.IsRecurring,
		&recurrence,
		&task.Tags,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if recurrence.Valid {
		task.RecurrencePattern = domain.RecurrencePattern(recurrence.String)
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	return &task, nil
}

func scanTaskRow(row *sql.Row) (*domain.Task, error) {
	return scanInto(row)
}

func scanTask(rows *sql.Rows) (*domain.Task, error) {
	return scanInto(rows)
}

// nullableString converts an empty string to NULL for optional text columns.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
