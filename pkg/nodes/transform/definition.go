// Package transform provides the transform node type definition.
package transform

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/dukex/flowforge/pkg/template"
)

// Params configure a transform node.
type Params struct {
	Expression string `json:"expression" validate:"required"`
}

// Definition describes the transform node type.
type Definition struct{}

// NewDefinition creates the transform node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeTransform
}

func (d *Definition) Name() string {
	return "Transform"
}

func (d *Definition) Description() string {
	return "Transforms data using Go templates with access to execution context, variables, and node results"
}

func (d *Definition) Version() string {
	return "v1"
}

// Schema returns the JSON schema for Transform node params.
func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Go template expression for data transformation. Has access to execution context.",
				"examples": []string{
					`{"user_id": "{{.variables.user_id}}", "status": "active"}`,
					`{{.variables.first_name}} {{.variables.last_name}}`,
				},
			},
		},
		"required": []string{"expression"},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{"expression": ""}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return nodes.Properties(map[string]string{"result": "object"})
}

// Validate requires an expression; strict mode also parses it.
func (d *Definition) Validate(node *models.Node, strict bool) error {
	var params Params
	if err := nodes.Decode(node, &params); err != nil {
		return err
	}

	if strict {
		if err := template.Check(params.Expression); err != nil {
			return models.NewNodeValidationError(node, "expression is not a valid template", err)
		}
	}

	return nil
}
