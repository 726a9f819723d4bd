// Package web provides the HTTP handlers of the flow API.
package web

import (
	"github.com/dukex/flowforge/pkg/debug"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/protocol"
)

// CreateFlowRequest represents the request body for creating a new flow.
type CreateFlowRequest struct {
	OrganizationCode string `json:"organization_code" validate:"required"`
	Name             string `json:"name"              validate:"required"`
	Description      string `json:"description"`
	Icon             string `json:"icon,omitempty"`
	Type             string `json:"type,omitempty"    validate:"omitempty,oneof=main sub tool"`
	ToolSetID        string `json:"tool_set_id,omitempty"`
	Creator          string `json:"creator"           validate:"required"`
}

// UpdateFlowRequest replaces the metadata of a flow.
type UpdateFlowRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	ToolSetID   string `json:"tool_set_id,omitempty"`
	Modifier    string `json:"modifier"`
}

// SaveNodesRequest carries the draft graph of a flow.
type SaveNodesRequest struct {
	Nodes          []*models.Node     `json:"nodes"                     validate:"dive"`
	Edges          []*models.Edge     `json:"edges"                     validate:"dive"`
	GlobalVariable *models.JSONSchema `json:"global_variable,omitempty"`
	Name           string             `json:"name,omitempty"`
	Description    string             `json:"description,omitempty"`
	Icon           string             `json:"icon,omitempty"`
	Modifier       string             `json:"modifier"`
}

// ChangeEnableRequest sets the enabled flag. A missing enable toggles it.
type ChangeEnableRequest struct {
	Enable   *bool  `json:"enable,omitempty"`
	Modifier string `json:"modifier"`
}

// PublishRequest names the version created by a publish.
type PublishRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Modifier    string `json:"modifier"`
}

// RollbackRequest identifies who rolled the flow back.
type RollbackRequest struct {
	Modifier string `json:"modifier"`
}

// PublishResponse is returned by a successful publish.
type PublishResponse struct {
	Flow    *models.Flow        `json:"flow"`
	Version *models.FlowVersion `json:"version"`
}

// DebugResultRequest asks for the aggregated trial-run result of a flow.
type DebugResultRequest struct {
	CollectErrors bool            `json:"collect_errors"`
	Override      *debug.Override `json:"override,omitempty"`
}

// NodeTypeResponse describes a registered node type.
type NodeTypeResponse struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Schema      map[string]any `json:"schema"`
}

func newNodeTypeResponse(definition protocol.NodeDefinition) NodeTypeResponse {
	return NodeTypeResponse{
		Type:        definition.Type(),
		Name:        definition.Name(),
		Description: definition.Description(),
		Version:     definition.Version(),
		Schema:      definition.Schema(),
	}
}
