// Package conditional provides the conditional node type definition.
package conditional

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/dukex/flowforge/pkg/template"
)

// Params configure a conditional node. Branch targets are edges keyed by the
// "true" and "false" source handles.
type Params struct {
	Condition string `json:"condition" validate:"required"`
}

// Definition describes the conditional node type.
type Definition struct{}

// NewDefinition creates the conditional node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeConditional
}

func (d *Definition) Name() string {
	return "Conditional"
}

func (d *Definition) Description() string {
	return "Evaluates a condition and routes execution to true or false paths."
}

func (d *Definition) Version() string {
	return "v1"
}

// Schema returns the JSON schema for Conditional node params.
func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"condition": map[string]any{
				"type":        "string",
				"description": "Condition expression to evaluate. Supports templating and various data types.",
				"examples": []string{
					`{{.variables.status}} == "active"`,
					`{{.node_results.api_call.status_code}} == 200`,
					`true`,
				},
			},
		},
		"required": []string{"condition"},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{"condition": "true"}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return nodes.Properties(map[string]string{"result": "boolean"})
}

func (d *Definition) Validate(node *models.Node, strict bool) error {
	var params Params
	if err := nodes.Decode(node, &params); err != nil {
		return err
	}

	if strict {
		if err := template.Check(params.Condition); err != nil {
			return models.NewNodeValidationError(node, "condition is not a valid template", err)
		}
	}

	return nil
}
