package testutil

import (
	"time"

	"github.com/dukex/flowforge/pkg/models"
)

// CreateTestFlow creates a test draft Flow with default values that can be overridden.
func CreateTestFlow(overrides ...func(*models.Flow)) *models.Flow {
	flow := &models.Flow{
		OrganizationCode: "ORG1",
		Name:             "My Flow",
		Description:      "A flow used in tests",
		Type:             models.FlowTypeMain,
		Creator:          "u1",
		CreatedAt:        time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Nodes:            []*models.Node{},
		Edges:            []*models.Edge{},
	}

	for _, override := range overrides {
		override(flow)
	}

	return flow
}

// WithNodes sets the flow nodes.
func WithNodes(nodes ...*models.Node) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Nodes = nodes
	}
}

// WithEdges sets the flow edges.
func WithEdges(edges ...*models.Edge) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Edges = edges
	}
}

// WithCode sets the flow code.
func WithCode(code string) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Code = code
	}
}

// RunnableNodes returns a minimal graph that passes strict validation.
func RunnableNodes() []*models.Node {
	return []*models.Node{
		StartNode("start", ParamCallBranch("b1", Schema("question"))),
		LogNode("log"),
		EndNode("end", Schema("answer")),
	}
}
