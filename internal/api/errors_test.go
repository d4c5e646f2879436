package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/service"
	"github.com/masadev/pscheduler/internal/service/auth"
	"github.com/masadev/pscheduler/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid refresh token", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"service task not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"service user not found", service.ErrUserNotFound, http.StatusNotFound},
		{"store task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"username exists", store.ErrUsernameExists, http.StatusConflict},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"validation error", domain.ErrValidation, http.StatusBadRequest},
		{"invalid ID", domain.ErrInvalidID, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"invalid date range", service.ErrInvalidDateRange, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCode_WrappedErrors(t *testing.T) {
	wrapped := service.NewTaskServiceError("get_task", "lookup failed", store.ErrTaskNotFound)
	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(wrapped))

	validationErr := domain.NewValidationError("status", "invalid task status", domain.ErrValidation)
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(validationErr))
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "Task not found", GetSafeErrorMessage(service.ErrTaskNotFound))
	assert.Equal(t, "User not found", GetSafeErrorMessage(service.ErrUserNotFound))
	assert.Equal(t, "Username already exists", GetSafeErrorMessage(store.ErrUsernameExists))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(
		t,
		"Start date must not be after end date",
		GetSafeErrorMessage(service.ErrInvalidDateRange),
	)

	// Validation errors surface the failing field
	validationErr := domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)
	assert.Equal(t, "Invalid id: has invalid format", GetSafeErrorMessage(validationErr))

	// Unknown errors never leak details
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(errors.New("pq: secret")))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(LoginRequest{Password: "secret"})
	assert.Equal(t, "Invalid Username: required field", SanitizeValidationError(err))

	err = v.Struct(RegisterRequest{Username: "alice", Email: "not-an-email", Password: "password123"})
	assert.Equal(t, "Invalid Email: invalid email format", SanitizeValidationError(err))

	// Non-validator errors get a generic message
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}
