// Package models defines the core domain models for node-based flow definitions.
package models

import "time"

// FlowType classifies how a flow can be invoked.
type FlowType string

const (
	FlowTypeMain FlowType = "main" // Standalone flow, triggered directly
	FlowTypeSub  FlowType = "sub"  // Embedded by other flows
	FlowTypeTool FlowType = "tool" // Exposed to callers as a named tool
)

// Valid reports whether t is a known flow type.
func (t FlowType) Valid() bool {
	switch t {
	case FlowTypeMain, FlowTypeSub, FlowTypeTool:
		return true
	default:
		return false
	}
}

// Flow is the aggregate root of one versionable flow definition.
// Code is assigned once at creation and is the identity shared by every version.
type Flow struct {
	ID               string      `json:"id"`
	OrganizationCode string      `json:"organization_code"        validate:"required"`
	Code             string      `json:"code"`
	Name             string      `json:"name"                     validate:"required"`
	Description      string      `json:"description"              validate:"required_if=Type tool"`
	Icon             string      `json:"icon,omitempty"`
	Type             FlowType    `json:"type"`
	ToolSetID        string      `json:"tool_set_id,omitempty"`
	Nodes            []*Node     `json:"nodes"`
	Edges            []*Edge     `json:"edges"`
	GlobalVariable   *JSONSchema `json:"global_variable,omitempty"`
	Enabled          bool        `json:"enabled"`
	VersionCode      string      `json:"version_code,omitempty"`
	Creator          string      `json:"creator"                  validate:"required"`
	CreatedAt        time.Time   `json:"created_at"`
	Modifier         string      `json:"modifier"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// IsPublished reports whether the flow points at a published version.
func (f *Flow) IsPublished() bool {
	return f.VersionCode != ""
}

// Edge links two nodes on the canvas. Branching lives in node params, not here.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"                  validate:"required"`
	Target       string `json:"target"                  validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// Clone returns a deep copy of the flow.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}

	clone := *f
	clone.Nodes = CloneNodes(f.Nodes)
	clone.Edges = CloneEdges(f.Edges)
	clone.GlobalVariable = f.GlobalVariable.Clone()

	return &clone
}

// Snapshot deep copies the flow's graph.
func (f *Flow) Snapshot() FlowSnapshot {
	return FlowSnapshot{
		Nodes:          CloneNodes(f.Nodes),
		Edges:          CloneEdges(f.Edges),
		GlobalVariable: f.GlobalVariable.Clone(),
	}
}
