package log

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, "FLOW-1", FlowCode("FLOW-1").Value.String())
	assert.Equal(t, "node_id", NodeID("n1").Key)
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Empty(t, Error(nil).Value.String())
}
