package nodes_test

import (
	"testing"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes/conditional"
	"github.com/dukex/flowforge/pkg/nodes/end"
	"github.com/dukex/flowforge/pkg/nodes/httprequest"
	"github.com/dukex/flowforge/pkg/nodes/log"
	"github.com/dukex/flowforge/pkg/nodes/loop"
	"github.com/dukex/flowforge/pkg/nodes/subflow"
	"github.com/dukex/flowforge/pkg/nodes/transform"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions_Validate(t *testing.T) {
	tests := []struct {
		name       string
		definition protocol.NodeDefinition
		params     any
		output     *models.JSONSchema
		strict     bool
		wantErr    bool
	}{
		{"log ok", log.NewDefinition(), map[string]any{"message": "hi {{.name}}"}, nil, true, false},
		{"log missing message", log.NewDefinition(), map[string]any{"level": "info"}, nil, false, true},
		{"log bad template strict", log.NewDefinition(), map[string]any{"message": "{{.name"}, nil, true, true},
		{"log bad template lenient", log.NewDefinition(), map[string]any{"message": "{{.name"}, nil, false, false},
		{"http ok", httprequest.NewDefinition(), map[string]any{"url": "https://example.com", "method": "POST"}, nil, true, false},
		{"http templated url", httprequest.NewDefinition(), map[string]any{"url": "{{.base}}/users"}, nil, true, false},
		{"http relative url strict", httprequest.NewDefinition(), map[string]any{"url": "users"}, nil, true, true},
		{"http relative url lenient", httprequest.NewDefinition(), map[string]any{"url": "users"}, nil, false, false},
		{"http bad method", httprequest.NewDefinition(), map[string]any{"url": "https://example.com", "method": "FETCH"}, nil, false, true},
		{"http timeout out of range", httprequest.NewDefinition(), map[string]any{"url": "https://example.com", "timeout": 301}, nil, false, true},
		{"transform ok", transform.NewDefinition(), map[string]any{"expression": "{{.input}}"}, nil, true, false},
		{"transform missing expression", transform.NewDefinition(), map[string]any{}, nil, false, true},
		{"conditional ok", conditional.NewDefinition(), map[string]any{"condition": "{{eq .a 1}}"}, nil, true, false},
		{"conditional missing", conditional.NewDefinition(), map[string]any{}, nil, false, true},
		{"loop count ok", loop.NewDefinition(), map[string]any{"type": "count", "count": 3}, nil, true, false},
		{"loop count zero strict", loop.NewDefinition(), map[string]any{"type": "count", "count": 0}, nil, true, true},
		{"loop array without ref", loop.NewDefinition(), map[string]any{"type": "array"}, nil, true, true},
		{"loop without type lenient", loop.NewDefinition(), map[string]any{}, nil, false, false},
		{"loop bad type", loop.NewDefinition(), map[string]any{"type": "while"}, nil, false, true},
		{"sub flow strict without code", subflow.NewDefinition(), map[string]any{}, nil, true, true},
		{"sub flow ok", subflow.NewDefinition(), map[string]any{"flow_code": "FLOW-1"}, nil, true, false},
		{"end with form", end.NewDefinition(), map[string]any{}, testutil.Schema("answer"), true, false},
		{"end without form strict", end.NewDefinition(), map[string]any{}, nil, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := testutil.CreateTestNode(
				testutil.WithType(tt.definition.Type()),
				testutil.WithParams(tt.params),
			)
			if tt.output != nil {
				node.Output = &models.NodeOutput{Form: tt.output}
			}

			err := tt.definition.Validate(node, tt.strict)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.IsValidationFailed(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestDefinitions_Metadata(t *testing.T) {
	definitions := []protocol.NodeDefinition{
		log.NewDefinition(),
		httprequest.NewDefinition(),
		transform.NewDefinition(),
		conditional.NewDefinition(),
		loop.NewDefinition(),
		subflow.NewDefinition(),
		end.NewDefinition(),
	}

	for _, definition := range definitions {
		t.Run(definition.Type(), func(t *testing.T) {
			assert.NotEmpty(t, definition.Name())
			assert.NotEmpty(t, definition.Description())
			assert.Equal(t, "v1", definition.Version())
			assert.Equal(t, "object", definition.Schema()["type"])
			assert.NotNil(t, definition.Template())
			assert.NotNil(t, definition.DefaultOutput())
		})
	}
}
