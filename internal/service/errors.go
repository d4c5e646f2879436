// Package service provides application-level services for managing tasks and users.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTaskNotFound indicates that a task does not exist or is not owned
	// by the requesting user. The two cases are deliberately indistinguishable
	// so that task IDs cannot be probed across accounts.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrUserNotFound indicates that the user does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidDateRange indicates that a date-range query was given a
	// start after its end.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidDateRange = errors.New("start date must not be after end date")
)
