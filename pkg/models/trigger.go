package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// TriggerType identifies how a start-node branch is fired.
type TriggerType string

const (
	TriggerTypeChat      TriggerType = "chat"       // Fired by an incoming chat message
	TriggerTypeRoutine   TriggerType = "routine"    // Fired on a cron schedule
	TriggerTypeParamCall TriggerType = "param_call" // Fired by a caller passing arguments
	TriggerTypeLoopStart TriggerType = "loop_start" // Entry of a loop body
)

// TriggerBranch is one labeled output of a start node.
type TriggerBranch struct {
	BranchID           string         `json:"branch_id"                      validate:"required"`
	TriggerType        TriggerType    `json:"trigger_type"                   validate:"required,oneof=chat routine param_call loop_start"`
	Output             *JSONSchema    `json:"output,omitempty"`
	CustomSystemOutput *JSONSchema    `json:"custom_system_output,omitempty"`
	Config             *RoutineConfig `json:"config,omitempty"`
}

// RoutineConfig holds the schedule of a routine trigger.
type RoutineConfig struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone,omitempty"`
}

// TriggerBranches decodes the branches declared in start-node params.
// Params without a branches array yield no branches.
func TriggerBranches(params json.RawMessage) ([]*TriggerBranch, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if !gjson.ValidBytes(params) {
		return nil, fmt.Errorf("params are not valid JSON")
	}

	result := gjson.GetBytes(params, "branches")
	if !result.Exists() {
		return nil, nil
	}

	if !result.IsArray() {
		return nil, fmt.Errorf("branches must be an array")
	}

	var (
		branches []*TriggerBranch
		err      error
	)

	result.ForEach(func(_, value gjson.Result) bool {
		branch := &TriggerBranch{}
		if err = json.Unmarshal([]byte(value.Raw), branch); err != nil {
			err = fmt.Errorf("invalid branch %s: %w", value.Get("branch_id").String(), err)

			return false
		}

		branches = append(branches, branch)

		return true
	})

	if err != nil {
		return nil, err
	}

	return branches, nil
}
