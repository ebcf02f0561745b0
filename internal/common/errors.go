// Package common defines the sentinel errors shared by repositories,
// services, and the HTTP layer. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Service-level errors (expected control flow, not crashes).
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInternal            = errors.New("internal error")

	// Auth errors (invalid or malformed identity token).
	ErrInvalidToken = errors.New("invalid token")
)
