package services

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials covers both unknown-email and wrong-password
// logins so the two cases are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("Invalid credentials")

var ErrDuplicateEmail = errors.New("User already exists with this email")

// NotFoundError takes priority over ForbiddenError: existence is checked
// before ownership, so probing for other users' resources still reads as
// a 404 only when the resource genuinely does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// ConflictError reports a request that lost to the current state of the
// resource, such as deciding an already-decided document.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ValidationError aggregates every field problem in a request so clients
// see all of them at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

func (e *ValidationError) Add(message string) {
	e.Messages = append(e.Messages, message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Messages) > 0
}
