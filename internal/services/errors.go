package services

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindAuth       ErrorKind = "auth"
	KindBackend    ErrorKind = "backend"
)

var (
	ErrInvalidType = errors.New("invalid file type")
	ErrTooLarge    = errors.New("file too large")
)

// AppError is the result-side error every service returns. Handlers turn it
// into the response envelope with StatusCode.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
	stack   []byte
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Stack returns the goroutine stack captured when the error was built.
func (e *AppError) Stack() string { return string(e.stack) }

// StatusCode maps the error kind to an HTTP status. Backend errors carrying a
// recognized gorm sub-code are narrowed to 404/400.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	}
	switch {
	case errors.Is(e.Err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(e.Err, gorm.ErrInvalidData),
		errors.Is(e.Err, gorm.ErrInvalidValue),
		errors.Is(e.Err, gorm.ErrInvalidField),
		errors.Is(e.Err, gorm.ErrPrimaryKeyRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage is what the client sees. Backend failures expose the wrapped
// message, matching the propagate-as-is policy.
func (e *AppError) PublicMessage() string {
	if e.Kind == KindBackend && e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func newAppError(kind ErrorKind, msg string, err error) *AppError {
	return &AppError{Kind: kind, Message: msg, Err: err, stack: debug.Stack()}
}

func NewValidationError(msg string) *AppError { return newAppError(KindValidation, msg, nil) }

// NewValidationErrorf wraps a sentinel (ErrInvalidType, ErrTooLarge) with a readable message.
func NewValidationErrorf(sentinel error, format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...), Err: sentinel, stack: debug.Stack()}
}

func NewNotFoundError(msg string) *AppError { return newAppError(KindNotFound, msg, nil) }

func NewAuthError(msg string) *AppError { return newAppError(KindAuth, msg, nil) }

func NewBackendError(msg string, err error) *AppError { return newAppError(KindBackend, msg, err) }

// NewStorageError marks an object storage failure.
func NewStorageError(op string, err error) *AppError {
	return newAppError(KindBackend, "storage "+op+" failed", err)
}

// AsAppError converts any error into an AppError, defaulting to a backend failure.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return newAppError(KindBackend, "", err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
