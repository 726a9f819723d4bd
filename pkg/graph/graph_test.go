package graph_test

import (
	"testing"

	"github.com/dukex/flowforge/pkg/graph"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_DuplicateNodeID(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*models.Node
	}{
		{
			name:  "top level",
			nodes: []*models.Node{testutil.LogNode("n1"), testutil.LogNode("n1")},
		},
		{
			name: "nested under a loop",
			nodes: []*models.Node{
				testutil.CreateTestNode(testutil.WithID("loop"), testutil.WithType(models.NodeTypeLoop)),
				testutil.CreateTestNode(testutil.WithID("n1"), testutil.WithParent("loop")),
				testutil.LogNode("n1"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := graph.Build(tt.nodes)

			require.Error(t, err)
			assert.True(t, models.IsValidationFailed(err))
			assert.Contains(t, err.Error(), "n1")

			var validationErr *models.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "n1", validationErr.NodeID)
		})
	}
}

func TestGraph_StartNode(t *testing.T) {
	t.Run("two top level start nodes fail", func(t *testing.T) {
		g := graph.New([]*models.Node{testutil.StartNode("s1"), testutil.StartNode("s2")})

		_, err := g.StartNode()
		require.Error(t, err)
		assert.True(t, models.IsValidationFailed(err))
	})

	t.Run("exactly one start node", func(t *testing.T) {
		start := testutil.StartNode("s1")
		g := graph.New([]*models.Node{testutil.LogNode("a"), start})

		got, err := g.StartNode()
		require.NoError(t, err)
		assert.Same(t, start, got)
	})

	t.Run("nested start node is not the flow start", func(t *testing.T) {
		nested := testutil.StartNode("inner")
		nested.ParentID = "loop"
		g := graph.New([]*models.Node{testutil.StartNode("s1"), nested})

		got, err := g.StartNode()
		require.NoError(t, err)
		assert.Equal(t, "s1", got.NodeID)
	})

	t.Run("no start node", func(t *testing.T) {
		g := graph.New([]*models.Node{testutil.LogNode("a")})

		got, err := g.StartNode()
		require.NoError(t, err)
		assert.Nil(t, got)

		input, err := g.Input()
		require.NoError(t, err)
		assert.Equal(t, models.NewObjectSchema(), input)
	})
}

func TestGraph_EndNode_FirstWins(t *testing.T) {
	first := testutil.EndNode("e1", testutil.Schema("a"))
	second := testutil.EndNode("e2", testutil.Schema("b"))
	g := graph.New([]*models.Node{first, second})

	end, err := g.EndNode()
	require.NoError(t, err)
	assert.Same(t, first, end)

	output, err := g.Output()
	require.NoError(t, err)
	assert.Contains(t, output.Properties, "a")
	assert.NotContains(t, output.Properties, "b")
}

func TestGraph_NodesByParentID(t *testing.T) {
	loop := testutil.CreateTestNode(testutil.WithID("loop"), testutil.WithType(models.NodeTypeLoop))
	child1 := testutil.CreateTestNode(testutil.WithID("c1"), testutil.WithParent("loop"))
	child2 := testutil.CreateTestNode(testutil.WithID("c2"), testutil.WithParent("loop"))
	g := graph.New([]*models.Node{loop, child1, testutil.LogNode("other"), child2})

	children, err := g.NodesByParentID("loop")
	require.NoError(t, err)
	assert.Equal(t, []*models.Node{child1, child2}, children)

	node, ok, err := g.NodeByID("c2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, child2, node)

	_, ok, err = g.NodeByID("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraph_Memoization(t *testing.T) {
	g := graph.New([]*models.Node{testutil.LogNode("x")})

	_, _, err := g.NodeByID("x")
	require.NoError(t, err)
	first, err := g.Index()
	require.NoError(t, err)

	_, _, err = g.NodeByID("x")
	require.NoError(t, err)
	second, err := g.Index()
	require.NoError(t, err)

	assert.Same(t, first, second)

	require.NoError(t, g.SetNodes([]*models.Node{testutil.LogNode("y")}, true))

	rebuilt, err := g.Index()
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)

	_, ok, err := g.NodeByID("x")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = g.NodeByID("y")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGraph_SetNodesWithRefreshSurfacesErrors(t *testing.T) {
	g := graph.New(nil)

	err := g.SetNodes([]*models.Node{testutil.LogNode("a"), testutil.LogNode("a")}, true)
	require.Error(t, err)
	assert.True(t, models.IsValidationFailed(err))

	err = g.SetNodes([]*models.Node{testutil.LogNode("a")}, false)
	require.NoError(t, err)

	_, ok, err := g.NodeByID("a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGraph_DoesNotMutateInput(t *testing.T) {
	nodes := []*models.Node{
		testutil.StartNode("s", testutil.ParamCallBranch("b", testutil.Schema("q"))),
		testutil.EndNode("e", testutil.Schema("a")),
	}
	before := models.CloneNodes(nodes)

	g := graph.New(nodes)
	contract, err := g.Contract()
	require.NoError(t, err)

	contract.Output.Properties["injected"] = &models.Property{Type: "string"}

	assert.Equal(t, before, nodes)
}
