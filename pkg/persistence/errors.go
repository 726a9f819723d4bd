package persistence

import (
	"errors"
	"fmt"

	"github.com/dukex/flowforge/pkg/models"
)

// Standard persistence error types that all implementations should use.
// Not-found errors also match models.ErrNotFound.
var (
	// ErrFlowNotFound indicates no live flow has the given code.
	ErrFlowNotFound = fmt.Errorf("flow %w", models.ErrNotFound)

	// ErrFlowVersionNotFound indicates no version matches the given flow and version code.
	ErrFlowVersionNotFound = fmt.Errorf("flow version %w", models.ErrNotFound)

	// ErrFlowVersionExists indicates a version with the same code was already created.
	ErrFlowVersionExists = errors.New("flow version already exists")
)

// FlowError wraps flow-related errors with additional context.
type FlowError struct {
	Op          string // Operation being performed (e.g., "GetByCode", "Save", "Remove")
	FlowCode    string
	VersionCode string // Version code if applicable
	Err         error
}

func (e *FlowError) Error() string {
	if e.VersionCode != "" {
		return fmt.Sprintf("%s operation failed for flow %s version %s: %v", e.Op, e.FlowCode, e.VersionCode, e.Err)
	}

	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowCode, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for flow errors.
func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowCode string, err error) *FlowError {
	return &FlowError{
		Op:       op,
		FlowCode: flowCode,
		Err:      err,
	}
}

// NewFlowVersionError creates a new flow error for version operations.
func NewFlowVersionError(op, flowCode, versionCode string, err error) *FlowError {
	return &FlowError{
		Op:          op,
		FlowCode:    flowCode,
		VersionCode: versionCode,
		Err:         err,
	}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsFlowVersionNotFound checks if an error indicates a flow version was not found.
func IsFlowVersionNotFound(err error) bool {
	return errors.Is(err, ErrFlowVersionNotFound)
}
