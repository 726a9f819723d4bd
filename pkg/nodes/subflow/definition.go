// Package subflow provides the sub-flow node type definition.
package subflow

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
)

// Params configure a sub-flow node.
type Params struct {
	FlowCode string         `json:"flow_code"`
	Input    map[string]any `json:"input"`
}

// Definition describes the sub-flow node type.
type Definition struct{}

// NewDefinition creates the sub-flow node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeSubFlow
}

func (d *Definition) Name() string {
	return "Sub Flow"
}

func (d *Definition) Description() string {
	return "Calls another flow through its input contract and exposes its output"
}

func (d *Definition) Version() string {
	return "v1"
}

func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flow_code": map[string]any{"type": "string"},
			"input":     map[string]any{"type": "object"},
		},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{"flow_code": "", "input": map[string]any{}}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return models.NewObjectSchema()
}

func (d *Definition) Validate(node *models.Node, strict bool) error {
	var params Params
	if err := nodes.Decode(node, &params); err != nil {
		return err
	}

	if strict && params.FlowCode == "" {
		return nodes.Invalid(node, "flow_code is required")
	}

	return nil
}
