package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a referenced entity or edge does not exist.
type NotFoundError struct {
	Entity  string
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AlreadyExistsError indicates a uniqueness violation caught before writing.
type AlreadyExistsError struct {
	Entity  string
	Message string
}

func (e *AlreadyExistsError) Error() string { return e.Message }

// ValidationError indicates malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ServerError wraps an unexpected storage or infrastructure failure.
type ServerError struct {
	Op  string
	Err error
}

func (e *ServerError) Error() string {
	if e.Err == nil {
		return e.Op + ": server error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(entity, format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// ErrAlreadyExists creates an AlreadyExistsError with a formatted message.
func ErrAlreadyExists(entity, format string, args ...interface{}) *AlreadyExistsError {
	return &AlreadyExistsError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrServer wraps err as a ServerError for operation op.
func ErrServer(op string, err error) *ServerError {
	return &ServerError{Op: op, Err: err}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAlreadyExists reports whether err is or wraps an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var target *AlreadyExistsError
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
