// Package apperr defines the error taxonomy returned by the engagement engines.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine failure.
type Kind string

const (
	// KindNotFound means the subject id does not resolve.
	KindNotFound Kind = "NOT_FOUND"
	// KindBadRequest means a guard or invariant rejected the operation.
	KindBadRequest Kind = "BAD_REQUEST"
	// KindFatal wraps storage or collaborator failures.
	KindFatal Kind = "FATAL"
)

// Error is the typed error returned by engine operations.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NotFound reports a missing entity.
func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

// NotFoundf reports a missing subject that is not a single entity id.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// BadRequest reports a rejected guard.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Fatal wraps an infrastructure failure.
func Fatal(msg string, cause error) *Error {
	return &Error{Kind: KindFatal, Message: msg, Cause: cause}
}

// KindOf returns the kind of err, treating untyped errors as fatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsBadRequest reports whether err is a BadRequest error.
func IsBadRequest(err error) bool {
	return err != nil && KindOf(err) == KindBadRequest
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Lookup converts a failed repository lookup: errors wrapping notFound become
// NotFound for entity id, anything else is Fatal.
func Lookup(err error, notFound error, entity string, id uint) error {
	if errors.Is(err, notFound) {
		return NotFound(entity, id)
	}
	return Fatal(fmt.Sprintf("failed to load %s %d", entity, id), err)
}
