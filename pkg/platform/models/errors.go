package models

import "errors"

// Common errors for platform store operations.
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
	ErrUserDisabled  = errors.New("user account is disabled")

	// Endpoint errors
	ErrEndpointNotFound = errors.New("endpoint not found")
)
