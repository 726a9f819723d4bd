package registry

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	return registry
}

func TestRegisterDefaultNodes(t *testing.T) {
	registry := newTestRegistry()

	types := make([]string, 0)
	for _, definition := range registry.Definitions() {
		types = append(types, definition.Type())
	}

	assert.Equal(t, []string{
		"conditional",
		"end",
		"http_request",
		"log",
		"loop",
		"start",
		"sub_flow",
		"transform",
	}, types)
	assert.NoError(t, registry.HealthCheck())
}

func TestHealthCheck_Empty(t *testing.T) {
	registry := NewRegistry(slog.Default())

	assert.ErrorIs(t, registry.HealthCheck(), ErrNoDefinitions)
}

func TestGenerateTemplate(t *testing.T) {
	registry := newTestRegistry()

	node, err := registry.GenerateTemplate(models.NodeTypeLog, map[string]any{"message": "hello"}, "")
	require.NoError(t, err)

	assert.NotEmpty(t, node.NodeID)
	assert.Equal(t, models.NodeTypeLog, node.NodeType)
	assert.Equal(t, "v1", node.NodeVersion)
	assert.Equal(t, "Log", node.Name)
	assert.JSONEq(t, `{"message":"hello","level":"info"}`, string(node.Params))
	require.NotNil(t, node.Output)
	assert.Contains(t, node.Output.Form.Properties, "message")

	require.NoError(t, registry.Validate(node, true))
}

func TestGenerateTemplate_Errors(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.GenerateTemplate("unknown", nil, "")
	require.ErrorIs(t, err, ErrUnknownNodeType)

	_, err = registry.GenerateTemplate(models.NodeTypeLog, nil, "v9")
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestGenerateTemplate_Independent(t *testing.T) {
	registry := newTestRegistry()

	first, err := registry.GenerateTemplate(models.NodeTypeStart, nil, "")
	require.NoError(t, err)

	second, err := registry.GenerateTemplate(models.NodeTypeStart, nil, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.NodeID, second.NodeID)
	assert.NotSame(t, first.Output.Form, second.Output.Form)
}

func TestValidate(t *testing.T) {
	registry := newTestRegistry()

	tests := []struct {
		name    string
		node    *models.Node
		strict  bool
		wantErr bool
	}{
		{
			name: "valid log node",
			node: testutil.LogNode("n1"),
		},
		{
			name:    "unknown type",
			node:    testutil.CreateTestNode(testutil.WithType("mystery")),
			wantErr: true,
		},
		{
			name: "schema violation",
			node: testutil.CreateTestNode(testutil.WithParams(map[string]any{
				"message": "hi",
				"level":   "verbose",
			})),
			wantErr: true,
		},
		{
			name: "missing required param",
			node: testutil.CreateTestNode(
				testutil.WithType(models.NodeTypeHTTPRequest),
				testutil.WithParams(map[string]any{"method": "GET"}),
			),
			wantErr: true,
		},
		{
			name: "params not JSON",
			node: testutil.CreateTestNode(func(n *models.Node) {
				n.Params = json.RawMessage(`{`)
			}),
			wantErr: true,
		},
		{
			name: "lenient end without form",
			node: testutil.CreateTestNode(testutil.WithType(models.NodeTypeEnd)),
		},
		{
			name:    "strict end without form",
			node:    testutil.CreateTestNode(testutil.WithType(models.NodeTypeEnd)),
			strict:  true,
			wantErr: true,
		},
		{
			name:   "strict start with param call",
			node:   testutil.StartNode("s", testutil.ParamCallBranch("b1", testutil.Schema("q"))),
			strict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Validate(tt.node, tt.strict)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.IsValidationFailed(err))

				var validationErr *models.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.node.NodeID, validationErr.NodeID)

				return
			}

			assert.NoError(t, err)
		})
	}
}
