// Package protocol defines the interfaces and contracts for pluggable node types.
package protocol

import (
	"github.com/dukex/flowforge/pkg/models"
)

// NodeDefinition describes one node type: its params schema, blank template,
// default output and type-specific validation.
type NodeDefinition interface {
	// Type returns the tag stored in models.Node.NodeType
	Type() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Version returns the latest params version of this node type
	Version() string

	// Schema returns the JSON schema for the node params
	Schema() map[string]any

	// Template returns the default params of a blank node
	Template() map[string]any

	// DefaultOutput returns the output form of a blank node
	DefaultOutput() *models.JSONSchema

	// Validate checks node params. Strict enables the rules applied before publishing.
	Validate(node *models.Node, strict bool) error
}
