package apperror

import (
	"errors"
	"fmt"
	"time"
)

// Kinds. Every error returned by a service matches exactly one of these with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrInvalidState  = errors.New("invalid state")
	ErrStorage       = errors.New("storage error")

	ErrUnauthenticated = fmt.Errorf("authentication required: %w", ErrAuthorization)
	ErrOverlap         = fmt.Errorf("reservation overlap: %w", ErrConflict)
)

type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newf(ErrValidation, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newf(ErrConflict, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newf(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newf(ErrAuthorization, format, args...)
}

func Unauthenticated() error {
	return &Error{Kind: ErrUnauthenticated, Message: "authentication required"}
}

func InvalidState(format string, args ...interface{}) error {
	return newf(ErrInvalidState, format, args...)
}

// Storage wraps an unexpected persistence failure. The cause is kept for logging.
func Storage(op string, err error) error {
	return &Error{Kind: ErrStorage, Message: op, Err: err}
}

// OverlapError reports the first reservation found to intersect the requested interval.
type OverlapError struct {
	TableID    uint
	ConflictID uint
	Start      time.Time
	End        time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("table %d is already reserved between %s and %s (reservation %d)",
		e.TableID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.ConflictID)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// Message returns a client-safe message for err. Storage failures are masked.
func Message(err error) string {
	if errors.Is(err, ErrStorage) {
		return "internal storage error"
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
