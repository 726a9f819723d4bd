// Package debug folds the per-node results of a trial run into one flow result.
package debug

import (
	"github.com/dukex/flowforge/pkg/models"
)

const unknownFailure = "node reported a failure without a message"

// Override is a precomputed result that replaces aggregation entirely, as when an embedding
// sub-flow supplies the outcome itself.
type Override struct {
	Output map[string]any `json:"output"`
}

// Options tune aggregation.
type Options struct {
	// CollectErrors records failures in Result.Errors instead of returning an ExecuteError.
	CollectErrors bool
}

// Result is the aggregated outcome of a trial run.
type Result struct {
	Output map[string]any `json:"output"`
	Errors []NodeError    `json:"errors,omitempty"`
}

// NodeError is one collected failure.
type NodeError struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
}

// Failed reports whether any failure was collected.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Aggregate walks nodes in list order. The first top-level end node with a successful debug
// result supplies the output; later end nodes never replace it.
func Aggregate(nodes []*models.Node, override *Override, opts Options) (*Result, error) {
	if override != nil {
		return &Result{Output: override.Output}, nil
	}

	result := &Result{}

	for _, node := range nodes {
		if node == nil || node.DebugResult == nil {
			continue
		}

		debugResult := node.DebugResult

		if !debugResult.Success {
			message := debugResult.ErrorMessage
			if message == "" {
				message = unknownFailure
			}

			if !opts.CollectErrors {
				return nil, &models.ExecuteError{NodeID: node.NodeID, Message: message}
			}

			result.Errors = append(result.Errors, NodeError{NodeID: node.NodeID, Message: message})

			continue
		}

		if result.Output == nil && node.IsEnd() && node.IsTopLevel() && debugResult.Output != nil {
			result.Output = models.CloneValue(debugResult.Output)
		}
	}

	return result, nil
}
