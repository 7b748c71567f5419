package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateEmail is returned when the case-folded email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrAuthenticationFailed covers every failed credential or token check.
	// Callers must not be able to tell the underlying reason apart.
	ErrAuthenticationFailed = errors.New("could not validate credentials")

	ErrUserNotFound = errors.New("user not found")
	ErrItemNotFound = errors.New("item not found")

	// ErrStoreUnavailable hides storage failures from callers.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrEmptyUpdate     = errors.New("no fields to update")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// ErrInvalidInput marks a request the service layer refuses before touching
// storage, such as a blank name. See InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// ThrottledError reports a login refused by the failed-attempt limiter.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string { return ErrTooManyAttempts.Error() }

func (e *ThrottledError) Is(target error) bool { return target == ErrTooManyAttempts }

// InvalidInputError names the offending field of an ErrInvalidInput.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Field + " " + e.Message
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }
