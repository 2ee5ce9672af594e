package model

import (
	"fmt"

	"github.com/Laisky/errors/v2"
)

var (
	// ErrInvalidArgument request is malformed or fails validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCredentials indicates the login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden caller may not touch the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict resource already exists.
	ErrConflict = errors.New("conflict")
)

// UserError error whose message is safe to show to clients
type UserError struct {
	kind error
	msg  string
}

// NewUserError create new UserError of kind
func NewUserError(kind error, format string, args ...any) *UserError {
	return &UserError{
		kind: kind,
		msg:  fmt.Sprintf(format, args...),
	}
}

func (e *UserError) Error() string {
	return e.msg
}

// Unwrap returns the kind
func (e *UserError) Unwrap() error {
	return e.kind
}
