// Package httprequest provides the HTTP request node type definition.
package httprequest

import (
	"strings"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/dukex/flowforge/pkg/template"
)

// Params configure an HTTP request node.
type Params struct {
	URL     string            `json:"url"     validate:"required"`
	Method  string            `json:"method"  validate:"omitempty,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
	Timeout int               `json:"timeout" validate:"omitempty,min=1,max=300"`
	Retries *Retries          `json:"retries"`
}

// Retries configure repeated attempts of a failed request.
type Retries struct {
	Attempts int `json:"attempts" validate:"min=1,max=10"`
	Delay    int `json:"delay"    validate:"min=0,max=30000"`
}

// Definition describes the HTTP request node type.
type Definition struct{}

// NewDefinition creates the HTTP request node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeHTTPRequest
}

func (d *Definition) Name() string {
	return "HTTP Request"
}

func (d *Definition) Description() string {
	return "Performs HTTP requests with retry logic"
}

func (d *Definition) Version() string {
	return "v1"
}

// Schema returns the JSON schema for HTTP request node params.
func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "HTTP URL to request. Supports templating with {{.node_results.prev_node.result}}",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":                 "object",
				"description":          "HTTP headers. Values support templating",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body. Supports templating for dynamic content",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
				"default":     30,
				"minimum":     1,
				"maximum":     300,
			},
			"retries": map[string]any{
				"type":        "object",
				"description": "Retry configuration for failed requests",
				"properties": map[string]any{
					"attempts": map[string]any{"type": "number", "minimum": 1, "maximum": 10},
					"delay":    map[string]any{"type": "number", "minimum": 0, "maximum": 30000},
				},
			},
		},
		"required": []string{"url"},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{
		"url":     "",
		"method":  "GET",
		"headers": map[string]any{},
		"timeout": 30,
	}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return nodes.Properties(map[string]string{
		"status_code": "integer",
		"body":        "string",
		"headers":     "object",
	})
}

// Validate requires a URL. Strict mode requires it to be absolute, or a valid template
// when it is computed at run time.
func (d *Definition) Validate(node *models.Node, strict bool) error {
	var params Params
	if err := nodes.Decode(node, &params); err != nil {
		return err
	}

	if !strict {
		return nil
	}

	if strings.Contains(params.URL, "{{") {
		if err := template.Check(params.URL); err != nil {
			return models.NewNodeValidationError(node, "url is not a valid template", err)
		}

		return nil
	}

	if err := nodes.CheckVar(params.URL, "url"); err != nil {
		return nodes.Invalid(node, "url %q is not an absolute URL", params.URL)
	}

	return nil
}
