// Package apperr defines the error taxonomy shared by all services.
//
// Services return *apperr.Error values so the API layer can map each
// failure to a distinct HTTP status. Anything that is not an *apperr.Error
// is treated as an internal failure (500).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// Unauthenticated: missing, malformed, or expired token.
	Unauthenticated Kind = iota
	// AccountDeactivated: valid token, but the account's active flag is off.
	AccountDeactivated
	// Forbidden: authenticated but not permitted for this action or resource.
	Forbidden
	// NotFound: referenced message, community, or user does not exist.
	NotFound
	// InvalidArgument: malformed mode, empty content, bad pagination bounds.
	InvalidArgument
	// AlreadyDeleted: re-deleting an already globally deleted message.
	AlreadyDeleted
	// Unavailable: transient store failure, safe to retry.
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case AccountDeactivated:
		return "account_deactivated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case AlreadyDeleted:
		return "already_deleted"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a taxonomy error with a caller-facing message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy kind to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the taxonomy kind of err, or ok=false for plain errors.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus maps an error to the transport status code. Clients must be
// able to tell "not allowed" from "not found" from "try again later".
func HTTPStatus(err error) int {
	k, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case AccountDeactivated, Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidArgument:
		return http.StatusBadRequest
	case AlreadyDeleted:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message returns the caller-facing message for taxonomy errors and a
// generic fallback for everything else, so internal details never leak.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal server error"
}
