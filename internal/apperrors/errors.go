// Package apperrors holds the sentinel errors shared across GymTrack.
// Callers wrap them with fmt.Errorf("...: %w", err) and classify with errors.Is.
package apperrors

import "errors"

var (
	// ErrValidation marks a draft or payload that is missing required fields.
	ErrValidation = errors.New("validation failed")

	// ErrNoUser is returned when an operation requires a logged-in user.
	ErrNoUser   = errors.New("no logged-in user")
	ErrNotFound = errors.New("not found")

	ErrInvalidTransition = errors.New("invalid workout state transition")
	ErrWorkoutActive     = errors.New("a workout is already active")
	ErrNoActiveWorkout   = errors.New("no active workout")

	ErrUnknownMessage = errors.New("unknown companion message type")
	ErrBadCursor      = errors.New("invalid pagination token")
)
