package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values.
//
// TaskStatusOverdue is declared for schema compatibility but is never
// assigned by any code path: "overdue" is a computed property derived from
// status and deadline (see Task.IsOverdue), not a stored state.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Possible task priority values
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// RecurrencePattern represents how often a recurring task repeats.
// Recurrence is stored but inert: no code materializes recurring instances.
type RecurrencePattern string

// Possible recurrence pattern values
const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// Maximum field lengths for Task
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxTagsLength        = 500
)

// Common validation errors for Task
var (
	ErrEmptyTaskID         = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID     = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle      = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong    = errors.New("task title must be at most 200 characters long")
	ErrTaskDescTooLong     = errors.New("task description must be at most 2000 characters long")
	ErrTaskTagsTooLong     = errors.New("task tags must be at most 500 characters long")
	ErrEmptyTaskDeadline   = errors.New("task deadline cannot be empty")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrInvalidTaskPriority = errors.New("invalid task priority")
	ErrInvalidRecurrence   = errors.New("invalid recurrence pattern")
)

// Task is the central entity: a unit of work owned by exactly one user,
// with a deadline and a status lifecycle.
type Task struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Status            TaskStatus        `json:"status"`
	Priority          TaskPriority      `json:"priority"`
	Deadline          time.Time         `json:"deadline"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	IsRecurring       bool              `json:"is_recurring"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
	Tags              string            `json:"tags,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user with status pending.
// Priority defaults to medium when empty. It generates a new UUID for the
// task ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(
	userID uuid.UUID,
	title, description string,
	deadline time.Time,
	priority TaskPriority,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		Priority:    priority,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	// Length limits count characters, not bytes, matching the varchar columns.
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrTaskDescTooLong
	}

	if utf8.RuneCountInString(t.Tags) > MaxTagsLength {
		return ErrTaskTagsTooLong
	}

	if t.Deadline.IsZero() {
		return ErrEmptyTaskDeadline
	}

	if !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	if !IsValidTaskPriority(t.Priority) {
		return ErrInvalidTaskPriority
	}

	if t.RecurrencePattern != "" && !isValidRecurrencePattern(t.RecurrencePattern) {
		return ErrInvalidRecurrence
	}

	return nil
}

// MarkCompleted transitions the task to completed, stamping CompletedAt and
// UpdatedAt with the given time. Callers are expected to check the current
// status first: completion is idempotent at the service layer, and calling
// this on an already-completed task would overwrite CompletedAt.
func (t *Task) MarkCompleted(now time.Time) {
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// IsOverdue reports whether the task is overdue relative to the given
// reference time. A task is overdue when it is neither completed nor
// cancelled and its deadline is strictly before the reference time; a
// deadline equal to the reference time is not overdue.
func (t *Task) IsOverdue(referenceTime time.Time) bool {
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return t.Deadline.Before(referenceTime)
}

// IsValidTaskStatus checks if the given status is a valid TaskStatus.
func IsValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusCancelled, TaskStatusOverdue:
		return true
	default:
		return false
	}
}

// IsValidTaskPriority checks if the given priority is a valid TaskPriority.
func IsValidTaskPriority(priority TaskPriority) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// isValidRecurrencePattern checks if the given pattern is a valid RecurrencePattern.
func isValidRecurrencePattern(pattern RecurrencePattern) bool {
	switch pattern {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}
