package models

import "time"

// FlowSnapshot is the frozen graph of a flow at publish time.
type FlowSnapshot struct {
	Nodes          []*Node     `json:"nodes"`
	Edges          []*Edge     `json:"edges"`
	GlobalVariable *JSONSchema `json:"global_variable,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s FlowSnapshot) Clone() FlowSnapshot {
	return FlowSnapshot{
		Nodes:          CloneNodes(s.Nodes),
		Edges:          CloneEdges(s.Edges),
		GlobalVariable: s.GlobalVariable.Clone(),
	}
}

// FlowVersion is an immutable published snapshot of a flow.
type FlowVersion struct {
	ID               string       `json:"id"`
	Code             string       `json:"code"`
	FlowCode         string       `json:"flow_code"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Flow             FlowSnapshot `json:"flow"`
	OrganizationCode string       `json:"organization_code"`
	Creator          string       `json:"creator"`
	CreatedAt        time.Time    `json:"created_at"`
}
