package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username  string `json:"username"   validate:"required,max=50"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Username is the authenticated user's username
	Username string `json:"username"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	// RefreshToken is the JWT refresh token to be used to obtain a new token pair
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	// AccessToken is the new JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the new JWT token used to obtain future access tokens
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// UserResponse represents the public view of a user account.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title             string    `json:"title"              validate:"required,max=200"`
	Description       string    `json:"description"        validate:"max=2000"`
	Deadline          time.Time `json:"deadline"           validate:"required"`
	Priority          string    `json:"priority"           validate:"omitempty,oneof=low medium high urgent"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern string    `json:"recurrence_pattern" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Tags              string    `json:"tags"               validate:"max=500"`
}

// UpdateTaskRequest defines the payload for partially updating a task.
// Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title             *string    `json:"title"              validate:"omitempty,max=200"`
	Description       *string    `json:"description"        validate:"omitempty,max=2000"`
	Status            *string    `json:"status"             validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority          *string    `json:"priority"           validate:"omitempty,oneof=low medium high urgent"`
	Deadline          *time.Time `json:"deadline"`
	IsRecurring       *bool      `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Tags              *string    `json:"tags"               validate:"omitempty,max=500"`
}

// BulkCompleteRequest defines the payload for completing several tasks at once.
type BulkCompleteRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1"`
}

// TaskResponse represents the response data for a task. IsOverdue is a
// projection computed against the time of the request, never stored.
type TaskResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Username          string     `json:"username"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	Deadline          time.Time  `json:"deadline"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
	Tags              string     `json:"tags,omitempty"`
	IsOverdue         bool       `json:"is_overdue"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TaskCountResponse represents the result of a status count query.
type TaskCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// taskToResponse converts a domain.Task to a TaskResponse, computing the
// overdue flag against the given reference time. The username comes from the
// authenticated principal: tasks are only ever served to their owner, so no
// user lookup is needed.
func taskToResponse(task *domain.Task, username string, referenceTime time.Time) TaskResponse {
	return TaskResponse{
		ID:                task.ID.String(),
		UserID:            task.UserID.String(),
		Username:          username,
		Title:             task.Title,
		Description:       task.Description,
		Status:            string(task.Status),
		Priority:          string(task.Priority),
		Deadline:          task.Deadline,
		CompletedAt:       task.CompletedAt,
		IsRecurring:       task.IsRecurring,
		RecurrencePattern: string(task.RecurrencePattern),
		Tags:              task.Tags,
		IsOverdue:         task.IsOverdue(referenceTime),
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}
}

// tasksToResponse converts a slice of tasks using a single reference time so
// that one response is internally consistent about what counts as overdue.
func tasksToResponse(tasks []*domain.Task, username string, referenceTime time.Time) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task, username, referenceTime))
	}
	return responses
}

// userToResponse converts a domain.User to its public representation.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}
