package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	userID := uuid.New()
	deadline := time.Now().UTC().Add(24 * time.Hour)

	task, err := NewTask(userID, "Write report", "Quarterly numbers", deadline, PriorityHigh)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if task.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, task.UserID)
	}

	if task.Status != TaskStatusPending {
		t.Errorf("Expected status %s, got %s", TaskStatusPending, task.Status)
	}

	if task.Priority != PriorityHigh {
		t.Errorf("Expected priority %s, got %s", PriorityHigh, task.Priority)
	}

	if task.CompletedAt != nil {
		t.Error("Expected nil CompletedAt for a new task")
	}

	if task.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	if task.UpdatedAt.IsZero() {
		t.Error("Expected non-zero UpdatedAt time")
	}
}

func TestNewTaskDefaultPriority(t *testing.T) {
	task, err := NewTask(uuid.New(), "Buy milk", "", time.Now().UTC().Add(time.Hour), "")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Priority != PriorityMedium {
		t.Errorf("Expected default priority %s, got %s", PriorityMedium, task.Priority)
	}
}

func TestNewTaskValidation(t *testing.T) {
	userID := uuid.New()
	deadline := time.Now().UTC().Add(time.Hour)

	_, err := NewTask(uuid.Nil, "Title", "", deadline, PriorityLow)
	if err != ErrEmptyTaskUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskUserID, err)
	}

	_, err = NewTask(userID, "", "", deadline, PriorityLow)
	if err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	_, err = NewTask(userID, strings.Repeat("a", MaxTitleLength+1), "", deadline, PriorityLow)
	if err != ErrTaskTitleTooLong {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleTooLong, err)
	}

	_, err = NewTask(userID, "Title", strings.Repeat("d", MaxDescriptionLength+1), deadline, PriorityLow)
	if err != ErrTaskDescTooLong {
		t.Errorf("Expected error %v, got %v", ErrTaskDescTooLong, err)
	}

	_, err = NewTask(userID, "Title", "", time.Time{}, PriorityLow)
	if err != ErrEmptyTaskDeadline {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskDeadline, err)
	}

	_, err = NewTask(userID, "Title", "", deadline, TaskPriority("extreme"))
	if err != ErrInvalidTaskPriority {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskPriority, err)
	}
}

func TestTaskValidate(t *testing.T) {
	validTask := Task{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    "Title",
		Status:   TaskStatusPending,
		Priority: PriorityMedium,
		Deadline: time.Now().UTC().Add(time.Hour),
	}

	if err := validTask.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidTask := validTask
	invalidTask.ID = uuid.Nil
	if err := invalidTask.Validate(); err != ErrEmptyTaskID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskID, err)
	}

	invalidTask = validTask
	invalidTask.Status = TaskStatus("archived")
	if err := invalidTask.Validate(); err != ErrInvalidTaskStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskStatus, err)
	}

	invalidTask = validTask
	invalidTask.Tags = strings.Repeat("t", MaxTagsLength+1)
	if err := invalidTask.Validate(); err != ErrTaskTagsTooLong {
		t.Errorf("Expected error %v, got %v", ErrTaskTagsTooLong, err)
	}

	invalidTask = validTask
	invalidTask.RecurrencePattern = RecurrencePattern("hourly")
	if err := invalidTask.Validate(); err != ErrInvalidRecurrence {
		t.Errorf("Expected error %v, got %v", ErrInvalidRecurrence, err)
	}

	// Empty recurrence pattern is valid for non-recurring tasks
	validTask.RecurrencePattern = ""
	if err := validTask.Validate(); err != nil {
		t.Errorf("Expected no error for empty recurrence pattern, got %v", err)
	}
}

func TestTaskValidateCountsCharacters(t *testing.T) {
	task := Task{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    strings.Repeat("ü", MaxTitleLength),
		Status:   TaskStatusPending,
		Priority: PriorityMedium,
		Deadline: time.Now().UTC().Add(time.Hour),
	}

	// 200 multibyte characters are 400 bytes but still within the limit
	if err := task.Validate(); err != nil {
		t.Errorf("Expected no error for %d-character title, got %v", MaxTitleLength, err)
	}

	task.Title = strings.Repeat("ü", MaxTitleLength+1)
	if err := task.Validate(); err != ErrTaskTitleTooLong {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleTooLong, err)
	}

	task.Title = "Title"
	task.Description = strings.Repeat("日", MaxDescriptionLength)
	if err := task.Validate(); err != nil {
		t.Errorf("Expected no error for %d-character description, got %v", MaxDescriptionLength, err)
	}

	task.Description = ""
	task.Tags = strings.Repeat("ö", MaxTagsLength)
	if err := task.Validate(); err != nil {
		t.Errorf("Expected no error for %d-character tags, got %v", MaxTagsLength, err)
	}
}

func TestMarkCompleted(t *testing.T) {
	task, err := NewTask(uuid.New(), "Title", "", time.Now().UTC().Add(time.Hour), PriorityLow)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	now := time.Now().UTC()
	task.MarkCompleted(now)

	if task.Status != TaskStatusCompleted {
		t.Errorf("Expected status %s, got %s", TaskStatusCompleted, task.Status)
	}

	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("Expected CompletedAt %v, got %v", now, task.CompletedAt)
	}

	if !task.UpdatedAt.Equal(now) {
		t.Errorf("Expected UpdatedAt %v, got %v", now, task.UpdatedAt)
	}
}

func TestIsOverdue(t *testing.T) {
	reference := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   TaskStatus
		deadline time.Time
		want     bool
	}{
		{"pending past deadline", TaskStatusPending, reference.Add(-time.Minute), true},
		{"in progress past deadline", TaskStatusInProgress, reference.Add(-24 * time.Hour), true},
		{"pending future deadline", TaskStatusPending, reference.Add(time.Minute), false},
		{"deadline equal to reference", TaskStatusPending, reference, false},
		{"completed past deadline", TaskStatusCompleted, reference.Add(-time.Hour), false},
		{"cancelled past deadline", TaskStatusCancelled, reference.Add(-time.Hour), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := Task{
				ID:       uuid.New(),
				UserID:   uuid.New(),
				Title:    "Title",
				Status:   tc.status,
				Priority: PriorityMedium,
				Deadline: tc.deadline,
			}

			if got := task.IsOverdue(reference); got != tc.want {
				t.Errorf("IsOverdue(%v) with status %s, deadline %v: expected %v, got %v",
					reference, tc.status, tc.deadline, tc.want, got)
			}
		})
	}
}

func TestIsValidTaskStatus(t *testing.T) {
	valid := []TaskStatus{
		TaskStatusPending,
		TaskStatusInProgress,
		TaskStatusCompleted,
		TaskStatusCancelled,
		TaskStatusOverdue,
	}

	for _, status := range valid {
		if !IsValidTaskStatus(status) {
			t.Errorf("Expected status %s to be valid", status)
		}
	}

	if IsValidTaskStatus(TaskStatus("done")) {
		t.Error("Expected status done to be invalid")
	}
}

func TestIsValidTaskPriority(t *testing.T) {
	valid := []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

	for _, priority := range valid {
		if !IsValidTaskPriority(priority) {
			t.Errorf("Expected priority %s to be valid", priority)
		}
	}

	if IsValidTaskPriority(TaskPriority("critical")) {
		t.Error("Expected priority critical to be invalid")
	}
}
