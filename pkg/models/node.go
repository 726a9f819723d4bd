package models

import "encoding/json"

// Built-in node types. The registry may hold more.
const (
	NodeTypeStart       = "start"
	NodeTypeEnd         = "end"
	NodeTypeLoop        = "loop"
	NodeTypeHTTPRequest = "http_request"
	NodeTypeTransform   = "transform"
	NodeTypeLog         = "log"
	NodeTypeConditional = "conditional"
	NodeTypeSubFlow     = "sub_flow"
)

// Node is one step of a flow. Nodes nested in a loop body carry the loop's id in ParentID.
type Node struct {
	NodeID      string          `json:"node_id"                validate:"required"`
	NodeType    string          `json:"node_type"              validate:"required"`
	NodeVersion string          `json:"node_version,omitempty"`
	ParentID    string          `json:"parent_id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
	Output      *NodeOutput     `json:"output,omitempty"`
	DebugResult *DebugResult    `json:"debug_result,omitempty"`
	Meta        map[string]any  `json:"meta,omitempty"` // Canvas layout, never interpreted
}

// IsTopLevel reports whether the node lives directly on the canvas.
func (n *Node) IsTopLevel() bool {
	return n.ParentID == ""
}

// IsStart reports whether the node is a flow entry point.
func (n *Node) IsStart() bool {
	return n.NodeType == NodeTypeStart
}

// IsEnd reports whether the node produces the flow result.
func (n *Node) IsEnd() bool {
	return n.NodeType == NodeTypeEnd
}

// NodeOutput declares what a node produces.
type NodeOutput struct {
	Form             *JSONSchema `json:"form,omitempty"`
	CustomSystemForm *JSONSchema `json:"custom_system_form,omitempty"`
}

// Clone returns a deep copy of the output declaration.
func (o *NodeOutput) Clone() *NodeOutput {
	if o == nil {
		return nil
	}

	return &NodeOutput{
		Form:             o.Form.Clone(),
		CustomSystemForm: o.CustomSystemForm.Clone(),
	}
}

// DebugResult is what a trial run recorded for one node.
type DebugResult struct {
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
	ElapsedMs    int64          `json:"elapsed_ms"`
}

// Clone returns a deep copy of the debug result.
func (d *DebugResult) Clone() *DebugResult {
	if d == nil {
		return nil
	}

	clone := *d
	clone.Output = CloneValue(d.Output)

	return &clone
}

// Clone returns a deep copy of the node. Params bytes are never shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := *n
	if n.Params != nil {
		clone.Params = append(json.RawMessage(nil), n.Params...)
	}

	clone.Output = n.Output.Clone()
	clone.DebugResult = n.DebugResult.Clone()
	clone.Meta = CloneValue(n.Meta)

	return &clone
}

// CloneNodes deep copies a node list, keeping nil as nil.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}

	cloned := make([]*Node, len(nodes))
	for i, node := range nodes {
		cloned[i] = node.Clone()
	}

	return cloned
}

// CloneEdges deep copies an edge list, keeping nil as nil.
func CloneEdges(edges []*Edge) []*Edge {
	if edges == nil {
		return nil
	}

	cloned := make([]*Edge, len(edges))

	for i, edge := range edges {
		if edge == nil {
			continue
		}

		e := *edge
		cloned[i] = &e
	}

	return cloned
}
