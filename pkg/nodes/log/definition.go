// Package log provides the log node type definition.
package log

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/dukex/flowforge/pkg/template"
)

// Params configure a log node.
type Params struct {
	Message string `json:"message" validate:"required"`
	Level   string `json:"level"   validate:"omitempty,oneof=debug info warn error"`
}

// Definition describes the log node type.
type Definition struct{}

// NewDefinition creates the log node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeLog
}

func (d *Definition) Name() string {
	return "Log"
}

func (d *Definition) Description() string {
	return "Logs messages at different levels (debug, info, warn, error) with template support for dynamic content"
}

func (d *Definition) Version() string {
	return "v1"
}

// Schema returns the JSON schema for Log node params.
func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message to log. Supports templating with execution context data.",
				"examples": []string{
					"Processing user: {{.variables.user_name}}",
					"API call result: {{.node_results.api_call.status}}",
				},
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for the message",
				"enum":        []string{"debug", "info", "warn", "error"},
				"default":     "info",
			},
		},
		"required": []string{"message"},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{
		"message": "",
		"level":   "info",
	}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return nodes.Properties(map[string]string{"message": "string", "level": "string"})
}

// Validate checks the message; strict mode also parses it as a template.
func (d *Definition) Validate(node *models.Node, strict bool) error {
	var params Params
	if err := nodes.Decode(node, &params); err != nil {
		return err
	}

	if strict {
		if err := template.Check(params.Message); err != nil {
			return models.NewNodeValidationError(node, "message is not a valid template", err)
		}
	}

	return nil
}
