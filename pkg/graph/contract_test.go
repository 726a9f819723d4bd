package graph_test

import (
	"testing"

	"github.com/dukex/flowforge/pkg/graph"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract_ParamCallBranch(t *testing.T) {
	branch := testutil.ParamCallBranch("b1", testutil.Schema("question"))
	branch.CustomSystemOutput = testutil.Schema("conversation_id")

	g := graph.New([]*models.Node{
		testutil.StartNode("start", testutil.RoutineBranch("r1", "0 * * * *"), branch),
		testutil.EndNode("end", testutil.Schema("answer")),
	})

	contract, err := g.Contract()
	require.NoError(t, err)

	assert.Contains(t, contract.Input.Properties, "question")
	assert.Contains(t, contract.CustomSystemInput.Properties, "conversation_id")
	assert.Contains(t, contract.Output.Properties, "answer")
}

func TestContract_LastParamCallBranchWins(t *testing.T) {
	g := graph.New([]*models.Node{
		testutil.StartNode("start",
			testutil.ParamCallBranch("b1", testutil.Schema("first")),
			testutil.ParamCallBranch("b2", testutil.Schema("second")),
		),
	})

	input, err := g.Input()
	require.NoError(t, err)

	assert.Contains(t, input.Properties, "second")
	assert.NotContains(t, input.Properties, "first")
}

func TestContract_Defaults(t *testing.T) {
	g := graph.New([]*models.Node{
		testutil.StartNode("start", testutil.RoutineBranch("r1", "0 * * * *")),
	})

	contract, err := g.Contract()
	require.NoError(t, err)

	assert.Equal(t, models.NewObjectSchema(), contract.Input)
	assert.Equal(t, models.NewObjectSchema(), contract.CustomSystemInput)
	assert.Equal(t, models.NewObjectSchema(), contract.Output)
}

func TestContract_MemoizedWithIndex(t *testing.T) {
	g := graph.New([]*models.Node{testutil.EndNode("end", testutil.Schema("a"))})

	first, err := g.Contract()
	require.NoError(t, err)

	second, err := g.Contract()
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, g.Refresh())

	third, err := g.Contract()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first, third)
}

func TestContract_InvalidStartParams(t *testing.T) {
	start := testutil.StartNode("start")
	start.Params = []byte(`{"branches":"nope"}`)

	_, err := graph.New([]*models.Node{start}).Contract()
	require.Error(t, err)
	assert.True(t, models.IsValidationFailed(err))
}
