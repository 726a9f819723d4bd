package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every flow operation.
var (
	// ErrValidationFailed marks structural or required-field violations.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNotFound marks a flow, draft or version that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExecuteFailed marks a trial-run node that reported a failure.
	ErrExecuteFailed = errors.New("execute failed")
)

// ValidationError carries enough context to render a precise message:
// a node (NodeID/NodeType), a flow field (Field), or only a reason.
type ValidationError struct {
	NodeID   string
	NodeType string
	Field    string
	Message  string
	Err      error
}

func (e *ValidationError) Error() string {
	switch {
	case e.NodeID != "":
		return fmt.Sprintf("validation failed for node %s (%s): %s", e.NodeID, e.NodeType, e.Message)
	case e.Field != "":
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	default:
		return "validation failed: " + e.Message
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed || errors.Is(e.Err, target)
}

// NewNodeValidationError reports a failure attributed to one node.
func NewNodeValidationError(node *Node, message string, err error) *ValidationError {
	validationErr := &ValidationError{Message: message, Err: err}
	if node != nil {
		validationErr.NodeID = node.NodeID
		validationErr.NodeType = node.NodeType
	}

	return validationErr
}

// NewFieldValidationError reports a failure attributed to a flow field.
func NewFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationError reports a free-text validation failure.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string // "flow", "flow version", ...
	Code     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Code)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a not found error for the given resource.
func NewNotFoundError(resource, code string) *NotFoundError {
	return &NotFoundError{Resource: resource, Code: code}
}

// ExecuteError reports the first failing node of a trial run.
type ExecuteError struct {
	NodeID  string
	Message string
}

func (e *ExecuteError) Error() string {
	return fmt.Sprintf("node %s execute failed: %s", e.NodeID, e.Message)
}

func (e *ExecuteError) Is(target error) bool {
	return target == ErrExecuteFailed
}

// IsValidationFailed checks if an error is a validation failure.
func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNotFound checks if an error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsExecuteFailed checks if an error indicates a failed trial run.
func IsExecuteFailed(err error) bool {
	return errors.Is(err, ErrExecuteFailed)
}
