package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "info")

	l.Info("token rejected", slog.String("reason", "expired"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "token rejected", entry["msg"])
	assert.Equal(t, "expired", entry["reason"])
	assert.Contains(t, entry, "time")
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "warn")

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
