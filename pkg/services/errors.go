// Package services provides the flow application service and its error types.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/registry"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrFlowCodeEmpty  = errors.New("flow code cannot be empty")
	ErrFlowNil        = errors.New("flow cannot be nil")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Flow code the operation ran against
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newServiceError(op, code string, err error) error {
	if err == nil {
		return nil
	}

	return &ServiceError{Op: op, Code: code, Err: err}
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowCodeEmpty) ||
		errors.Is(err, ErrFlowNil) ||
		errors.Is(err, registry.ErrUnsupportedVersion) ||
		models.IsValidationFailed(err)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return models.IsNotFound(err) || errors.Is(err, registry.ErrUnknownNodeType)
}

// IsExecuteError checks if an error reports a failed trial run (HTTP 422).
func IsExecuteError(err error) bool {
	return models.IsExecuteFailed(err)
}
