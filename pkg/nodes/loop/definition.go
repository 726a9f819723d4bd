// Package loop provides the loop node type definition. Body nodes reference the loop through
// their ParentID.
package loop

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
)

const (
	TypeCount = "count"
	TypeArray = "array"
)

// Params configure a loop node.
type Params struct {
	Type          string `json:"type"           validate:"omitempty,oneof=count array"`
	Count         int    `json:"count"          validate:"min=0"`
	ArrayRef      string `json:"array_ref"`
	MaxIterations int    `json:"max_iterations" validate:"omitempty,min=1,max=10000"`
}

// Definition describes the loop node type.
type Definition struct{}

// NewDefinition creates the loop node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeLoop
}

func (d *Definition) Name() string {
	return "Loop"
}

func (d *Definition) Description() string {
	return "Runs its body nodes a fixed number of times or once per array item"
}

func (d *Definition) Version() string {
	return "v1"
}

func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{TypeCount, TypeArray},
			},
			"count": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
			"array_ref": map[string]any{
				"type":        "string",
				"description": "Reference to the array to iterate, e.g. {{.node_results.fetch.items}}",
			},
			"max_iterations": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 10000,
			},
		},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{
		"type":           TypeCount,
		"count":          1,
		"max_iterations": 100,
	}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return nodes.Properties(map[string]string{"index": "integer", "item": "object"})
}

// Validate checks the loop mode; strict mode requires the mode's source to be set.
func (d *Definition) Validate(node *models.Node, strict bool) error {
	var params Params
	if err := nodes.Decode(node, &params); err != nil {
		return err
	}

	if !strict {
		return nil
	}

	switch params.Type {
	case TypeCount:
		if params.Count < 1 {
			return nodes.Invalid(node, "count loop needs a count of at least 1")
		}
	case TypeArray:
		if params.ArrayRef == "" {
			return nodes.Invalid(node, "array loop needs an array_ref")
		}
	default:
		return nodes.Invalid(node, "loop type is required")
	}

	return nil
}
