// Package service implements the messaging operations: registration and
// login, message access control and the user directory. Errors returned from
// this package wrap one of the sentinels below so the HTTP layer can map them
// to a status code with errors.Is.
package service

import "errors"

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks a missing identity or an identity not allowed to touch a
	// resource.
	ErrAuth = errors.New("unauthorized")
	// ErrNotFound marks an unknown message id or username.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a state clash such as a taken username or a message
	// already marked read.
	ErrConflict = errors.New("conflict")
	// ErrRateLimited marks a client over its request budget.
	ErrRateLimited = errors.New("too many requests")
)
