package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Str("serial", "WPC-1").Msg("reader connected")

	var output map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output), "logger output should be valid JSON")

	assert.Equal(t, "reader connected", output["message"])
	assert.Equal(t, "WPC-1", output["serial"])
	assert.Equal(t, "info", output["level"])
	assert.Contains(t, output, "time")
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, false},
		{"error", false, false},
		{"invalid", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var debugBuf, infoBuf bytes.Buffer
			debugLog := NewWithWriter(tt.level, &debugBuf)
			debugLog.Debug().Msg("d")
			infoLog := NewWithWriter(tt.level, &infoBuf)
			infoLog.Info().Msg("i")

			assert.Equal(t, tt.debugSeen, debugBuf.Len() > 0)
			assert.Equal(t, tt.infoSeen, infoBuf.Len() > 0)
		})
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter("info", &buf), "machine")

	log.Info().Msg("state changed")

	var output map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "machine", output["component"])
}

func TestNew_PrettyMode(t *testing.T) {
	log := New("info", true)
	log.Info().Msg("pretty mode test")
}
