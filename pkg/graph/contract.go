package graph

import (
	"github.com/dukex/flowforge/pkg/models"
)

// Contract is the externally visible call/response shape of a flow.
type Contract struct {
	Input             *models.JSONSchema `json:"input"`
	CustomSystemInput *models.JSONSchema `json:"custom_system_input"`
	Output            *models.JSONSchema `json:"output"`
}

func resolveContract(index *Index) (*Contract, error) {
	contract := &Contract{
		Input:             models.NewObjectSchema(),
		CustomSystemInput: models.NewObjectSchema(),
		Output:            models.NewObjectSchema(),
	}

	if start := index.Start(); start != nil {
		branches, err := models.TriggerBranches(start.Params)
		if err != nil {
			return nil, models.NewNodeValidationError(start, "invalid start params", err)
		}

		// When several param-call branches exist the last one wins.
		for _, branch := range branches {
			if branch.TriggerType != models.TriggerTypeParamCall {
				continue
			}

			contract.Input = orEmpty(branch.Output)
			contract.CustomSystemInput = orEmpty(branch.CustomSystemOutput)
		}
	}

	if end := index.End(); end != nil && end.Output != nil && end.Output.Form != nil {
		contract.Output = end.Output.Form.Clone()
	}

	return contract, nil
}

func orEmpty(schema *models.JSONSchema) *models.JSONSchema {
	if schema == nil {
		return models.NewObjectSchema()
	}

	return schema.Clone()
}
