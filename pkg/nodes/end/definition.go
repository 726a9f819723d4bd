// Package end provides the end node type definition. The output form of the top-level end
// node is the flow's output contract.
package end

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
)

// Definition describes the end node type.
type Definition struct{}

// NewDefinition creates the end node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeEnd
}

func (d *Definition) Name() string {
	return "End"
}

func (d *Definition) Description() string {
	return "Exit point of a flow; its output form is returned to the caller"
}

func (d *Definition) Version() string {
	return "v1"
}

func (d *Definition) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return models.NewObjectSchema()
}

func (d *Definition) Validate(node *models.Node, strict bool) error {
	if strict && (node.Output == nil || node.Output.Form == nil) {
		return nodes.Invalid(node, "end node needs an output form")
	}

	return nil
}
