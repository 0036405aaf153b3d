package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := WithComponent(NewWithWriter(&buf, "timesheet-api", "production"), "timesheet")

	log.Debug().Msg("hidden")
	log.Info().Str("user_id", "alice").Msg("timesheet saved as draft")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "timesheet-api", line["service"])
	assert.Equal(t, "timesheet", line["component"])
	assert.Equal(t, "alice", line["user_id"])
	assert.Equal(t, "info", line["level"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewWithWriter_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "timesheet-api", "development")
	log.Debug().Msg("visible")

	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(buf.Bytes()))
}
