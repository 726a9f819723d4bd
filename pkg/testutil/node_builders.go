// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"encoding/json"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		NodeID:      uuid.New().String(),
		NodeType:    models.NodeTypeLog,
		NodeVersion: "v1",
		Name:        "Test Node",
		Params:      json.RawMessage(`{"message":"test","level":"info"}`),
		Meta:        map[string]any{"position": map[string]any{"x": 100, "y": 200}},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.NodeID = id
	}
}

// WithType sets the node type and clears params.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.NodeType = nodeType
		n.Params = nil
	}
}

// WithParent nests the node under parentID.
func WithParent(parentID string) func(*models.Node) {
	return func(n *models.Node) {
		n.ParentID = parentID
	}
}

// WithParams sets the node params from any JSON-marshalable value.
func WithParams(params any) func(*models.Node) {
	return func(n *models.Node) {
		n.Params = MustJSON(params)
	}
}

// WithOutputForm sets the node's declared output form.
func WithOutputForm(form *models.JSONSchema) func(*models.Node) {
	return func(n *models.Node) {
		n.Output = &models.NodeOutput{Form: form}
	}
}

// WithDebugResult attaches a trial-run result.
func WithDebugResult(result *models.DebugResult) func(*models.Node) {
	return func(n *models.Node) {
		n.DebugResult = result
	}
}

// StartNode creates a start node carrying the given trigger branches.
func StartNode(id string, branches ...*models.TriggerBranch) *models.Node {
	if branches == nil {
		branches = []*models.TriggerBranch{}
	}

	return CreateTestNode(
		WithID(id),
		WithType(models.NodeTypeStart),
		WithParams(map[string]any{"branches": branches}),
	)
}

// EndNode creates an end node with the given output form.
func EndNode(id string, form *models.JSONSchema) *models.Node {
	return CreateTestNode(
		WithID(id),
		WithType(models.NodeTypeEnd),
		WithParams(map[string]any{}),
		WithOutputForm(form),
	)
}

// LogNode creates a valid log node.
func LogNode(id string) *models.Node {
	return CreateTestNode(WithID(id))
}

// ParamCallBranch creates a param-call trigger branch with an input form.
func ParamCallBranch(id string, input *models.JSONSchema) *models.TriggerBranch {
	return &models.TriggerBranch{
		BranchID:    id,
		TriggerType: models.TriggerTypeParamCall,
		Output:      input,
	}
}

// RoutineBranch creates a routine trigger branch firing on cron.
func RoutineBranch(id, cron string) *models.TriggerBranch {
	return &models.TriggerBranch{
		BranchID:    id,
		TriggerType: models.TriggerTypeRoutine,
		Config:      &models.RoutineConfig{Cron: cron},
	}
}

// RoutineBranchIn creates a routine trigger branch whose cron is read in timezone.
func RoutineBranchIn(id, cron, timezone string) *models.TriggerBranch {
	branch := RoutineBranch(id, cron)
	branch.Config.Timezone = timezone

	return branch
}

// Schema builds an object schema with string properties.
func Schema(properties ...string) *models.JSONSchema {
	schema := models.NewObjectSchema()
	for _, name := range properties {
		schema.Properties[name] = &models.Property{Type: "string"}
	}

	return schema
}

// MustJSON marshals value or panics.
func MustJSON(value any) json.RawMessage {
	data, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}

	return data
}
