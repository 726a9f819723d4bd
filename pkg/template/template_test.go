package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain text", input: "hello"},
		{name: "variable", input: "Processing {{.variables.user_name}}"},
		{name: "custom function", input: `{"at": "{{now}}", "n": {{rand 10}}}`},
		{name: "unclosed action", input: "{{.variables.user", wantErr: true},
		{name: "unknown function", input: "{{upper .name}}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to parse template")

				return
			}

			assert.NoError(t, err)
		})
	}
}
