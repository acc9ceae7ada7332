package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueClosed is returned when posting to a queue worker that has been closed.
	ErrQueueClosed = errors.New("queue worker is closed")

	// ErrNegativeCounter signals a Decrement without a matching Increment.
	ErrNegativeCounter = errors.New("blocking counter decremented below zero")

	ErrBatchStopped = errors.New("batch token is stopped")
)

// ArgumentRequiredError is returned when a required argument is nil.
type ArgumentRequiredError struct {
	Param string
}

func NewArgumentRequiredError(param string) *ArgumentRequiredError {
	return &ArgumentRequiredError{Param: param}
}

func (e *ArgumentRequiredError) Error() string {
	return fmt.Sprintf("argument required: %s", e.Param)
}

func IsArgumentRequiredError(err error) bool {
	var e *ArgumentRequiredError
	return errors.As(err, &e)
}

type InvalidSettingsError struct {
	Field  string
	Reason string
}

func NewInvalidSettingsError(field, reason string) *InvalidSettingsError {
	return &InvalidSettingsError{Field: field, Reason: reason}
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid setting %s: %s", e.Field, e.Reason)
}

func IsInvalidSettingsError(err error) bool {
	var e *InvalidSettingsError
	return errors.As(err, &e)
}

type ResourceNotFoundError struct {
	Kind string
	ID   string
}

func NewResourceNotFoundError(kind, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: kind, ID: id}
}

func NewFailureNotFoundError(id string) *ResourceNotFoundError {
	return NewResourceNotFoundError("failure", id)
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}

type UnauthorizedError struct{}

func NewUnauthorizedError() *UnauthorizedError {
	return &UnauthorizedError{}
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized"
}

func IsUnauthorizedError(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}
