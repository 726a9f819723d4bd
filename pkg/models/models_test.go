package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowClone_DoesNotAlias(t *testing.T) {
	minLength := 3
	flow := &Flow{
		Code: "FLOW-1",
		Nodes: []*Node{
			{
				NodeID:      "n1",
				NodeType:    NodeTypeLog,
				Params:      json.RawMessage(`{"message":"hi"}`),
				Output:      &NodeOutput{Form: &JSONSchema{Type: "object", Properties: map[string]*Property{"a": {Type: "string", MinLength: &minLength}}}},
				DebugResult: &DebugResult{Success: true, Output: map[string]any{"a": []any{"x"}}},
				Meta:        map[string]any{"position": map[string]any{"x": 1}},
			},
		},
		Edges:          []*Edge{{ID: "e1", Source: "n1", Target: "n2"}},
		GlobalVariable: NewObjectSchema(),
	}

	clone := flow.Clone()
	require.Equal(t, flow, clone)

	clone.Nodes[0].Params[2] = 'X'
	*clone.Nodes[0].Output.Form.Properties["a"].MinLength = 10
	clone.Nodes[0].DebugResult.Output["a"].([]any)[0] = "y"
	clone.Nodes[0].Meta["position"].(map[string]any)["x"] = 2
	clone.Edges[0].Target = "n3"
	clone.GlobalVariable.Properties["g"] = &Property{Type: "string"}

	assert.JSONEq(t, `{"message":"hi"}`, string(flow.Nodes[0].Params))
	assert.Equal(t, 3, *flow.Nodes[0].Output.Form.Properties["a"].MinLength)
	assert.Equal(t, "x", flow.Nodes[0].DebugResult.Output["a"].([]any)[0])
	assert.Equal(t, 1, flow.Nodes[0].Meta["position"].(map[string]any)["x"])
	assert.Equal(t, "n2", flow.Edges[0].Target)
	assert.Empty(t, flow.GlobalVariable.Properties)
}

func TestFlowClone_Nil(t *testing.T) {
	var flow *Flow

	assert.Nil(t, flow.Clone())
	assert.Nil(t, CloneNodes(nil))
	assert.Nil(t, CloneEdges(nil))
}

func TestFlowType_Valid(t *testing.T) {
	assert.True(t, FlowTypeMain.Valid())
	assert.True(t, FlowTypeSub.Valid())
	assert.True(t, FlowTypeTool.Valid())
	assert.False(t, FlowType("agent").Valid())
}

func TestErrors(t *testing.T) {
	node := &Node{NodeID: "n1", NodeType: NodeTypeLog}

	nodeErr := NewNodeValidationError(node, "message is required", nil)
	assert.Equal(t, "validation failed for node n1 (log): message is required", nodeErr.Error())
	assert.True(t, IsValidationFailed(nodeErr))
	assert.False(t, IsNotFound(nodeErr))

	fieldErr := NewFieldValidationError("name", "is required")
	assert.Equal(t, "validation failed for name: is required", fieldErr.Error())

	wrapped := NewNodeValidationError(node, "bad", ErrInvalidSchedule)
	assert.ErrorIs(t, wrapped, ErrInvalidSchedule)
	assert.ErrorIs(t, wrapped, ErrValidationFailed)

	notFound := NewNotFoundError("flow", "FLOW-1")
	assert.Equal(t, "flow FLOW-1 not found", notFound.Error())
	assert.True(t, IsNotFound(errors.Join(errors.New("context"), notFound)))

	executeErr := &ExecuteError{NodeID: "n2", Message: "boom"}
	assert.True(t, IsExecuteFailed(executeErr))
	assert.Equal(t, "node n2 execute failed: boom", executeErr.Error())
}

func TestTriggerBranches(t *testing.T) {
	tests := []struct {
		name    string
		params  string
		want    int
		wantErr bool
	}{
		{name: "empty params", params: ""},
		{name: "no branches", params: `{"other":1}`},
		{name: "two branches", params: `{"branches":[{"branch_id":"a","trigger_type":"chat"},{"branch_id":"b","trigger_type":"routine","config":{"cron":"0 * * * *"}}]}`, want: 2},
		{name: "invalid json", params: `{"branches":`, wantErr: true},
		{name: "not an array", params: `{"branches":{}}`, wantErr: true},
		{name: "bad branch", params: `{"branches":[{"branch_id":1}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			branches, err := TriggerBranches(json.RawMessage(tt.params))
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Len(t, branches, tt.want)
		})
	}
}

func TestNewSchedule(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 2, 0, 0, time.UTC)

	schedule, err := NewSchedule("FLOW-1", "r1", "FLOWVERSION-1", "*/5 * * * *", "", now)
	require.NoError(t, err)

	assert.Equal(t, "FLOW-1:r1", schedule.ID)
	assert.True(t, schedule.Active)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC), schedule.NextDueAt)
	assert.False(t, schedule.IsDue(now))
	assert.True(t, schedule.IsDue(now.Add(3*time.Minute)))

	_, err = NewSchedule("FLOW-1", "r1", "", "every minute", "", now)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = NewSchedule("", "r1", "", "* * * * *", "", now)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = NewSchedule("FLOW-1", "r1", "", "* * * * *", "Mars/Olympus", now)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestNewScheduleInTimezone(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

	schedule, err := NewSchedule("FLOW-1", "r1", "", "0 9 * * *", "Asia/Tokyo", now)
	require.NoError(t, err)

	assert.Equal(t, "Asia/Tokyo", schedule.Timezone)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), schedule.NextDueAt)
	assert.Equal(t, time.UTC, schedule.NextDueAt.Location())
}

func TestLoadTimezone(t *testing.T) {
	loc, err := LoadTimezone("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = LoadTimezone("America/Sao_Paulo")
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	_, err = LoadTimezone("Mars/Olympus")
	assert.Error(t, err)
}
