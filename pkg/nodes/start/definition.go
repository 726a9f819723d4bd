// Package start provides the start node type definition. A start node declares the trigger
// branches through which a flow can be entered.
package start

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/nodes"
	"github.com/dukex/flowforge/pkg/protocol"
)

// Definition describes the start node type.
type Definition struct{}

// NewDefinition creates the start node type definition.
func NewDefinition() protocol.NodeDefinition {
	return &Definition{}
}

func (d *Definition) Type() string {
	return models.NodeTypeStart
}

func (d *Definition) Name() string {
	return "Start"
}

func (d *Definition) Description() string {
	return "Entry point of a flow, declaring chat, routine, param call and loop triggers"
}

func (d *Definition) Version() string {
	return "v1"
}

func (d *Definition) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"branches": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"branch_id": map[string]any{"type": "string"},
						"trigger_type": map[string]any{
							"type": "string",
							"enum": []string{
								string(models.TriggerTypeChat),
								string(models.TriggerTypeRoutine),
								string(models.TriggerTypeParamCall),
								string(models.TriggerTypeLoopStart),
							},
						},
						"output":               map[string]any{"type": "object"},
						"custom_system_output": map[string]any{"type": "object"},
						"config": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"cron":     map[string]any{"type": "string"},
								"timezone": map[string]any{"type": "string"},
							},
						},
					},
					"required": []string{"branch_id", "trigger_type"},
				},
			},
		},
	}
}

func (d *Definition) Template() map[string]any {
	return map[string]any{
		"branches": []any{
			map[string]any{
				"branch_id":    "chat",
				"trigger_type": string(models.TriggerTypeChat),
				"output":       models.NewObjectSchema(),
			},
		},
	}
}

func (d *Definition) DefaultOutput() *models.JSONSchema {
	return models.NewObjectSchema()
}

// Validate checks every declared branch. Strict mode requires at least one branch, an
// output form on param call branches and a parsable cron expression and known timezone on
// routine branches.
func (d *Definition) Validate(node *models.Node, strict bool) error {
	branches, err := models.TriggerBranches(node.Params)
	if err != nil {
		return models.NewNodeValidationError(node, err.Error(), err)
	}

	seen := make(map[string]struct{}, len(branches))

	for _, branch := range branches {
		if err := nodes.CheckStruct(branch); err != nil {
			return models.NewNodeValidationError(node, "branch "+branch.BranchID+": "+nodes.Describe(err), err)
		}

		if _, ok := seen[branch.BranchID]; ok {
			return nodes.Invalid(node, "duplicate branch id %s", branch.BranchID)
		}

		seen[branch.BranchID] = struct{}{}

		if strict {
			if err := validateStrict(node, branch); err != nil {
				return err
			}
		}
	}

	if strict && len(branches) == 0 {
		return nodes.Invalid(node, "at least one trigger branch is required")
	}

	return nil
}

func validateStrict(node *models.Node, branch *models.TriggerBranch) error {
	switch branch.TriggerType {
	case models.TriggerTypeRoutine:
		if branch.Config == nil || branch.Config.Cron == "" {
			return nodes.Invalid(node, "routine branch %s needs a cron expression", branch.BranchID)
		}

		if _, err := models.ParseCron(branch.Config.Cron); err != nil {
			return models.NewNodeValidationError(node, "routine branch "+branch.BranchID+" has an invalid cron expression", err)
		}

		if _, err := models.LoadTimezone(branch.Config.Timezone); err != nil {
			return models.NewNodeValidationError(node, "routine branch "+branch.BranchID+" has an unknown timezone", err)
		}
	case models.TriggerTypeParamCall:
		if branch.Output == nil {
			return nodes.Invalid(node, "param call branch %s needs an output form", branch.BranchID)
		}
	}

	return nil
}
