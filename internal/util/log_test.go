package util

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLog sends the default logger to a JSON buffer at level until the
// test ends.
func captureLog(t *testing.T, level pterm.LogLevel) *bytes.Buffer {
	t.Helper()
	saved := pterm.DefaultLogger
	t.Cleanup(func() { pterm.DefaultLogger = saved })

	var buf bytes.Buffer
	pterm.DefaultLogger.Writer = &buf
	pterm.DefaultLogger.Formatter = pterm.LogFormatterJSON
	pterm.DefaultLogger.Level = level
	return &buf
}

func TestLogLevels(t *testing.T) {
	testCases := []struct {
		level      Level
		wantLevel  string
		wantStatus any
	}{
		{LevelDebug, "DEBUG", nil},
		{LevelInfo, "INFO", nil},
		{LevelSuccess, "INFO", "ok"},
		{LevelWarning, "WARN", nil},
		{LevelError, "ERROR", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.level.String(), func(t *testing.T) {
			buf := captureLog(t, pterm.LogLevelDebug)
			Log(tc.level, "knock to Baophes delivered")

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tc.wantLevel, line["level"])
			assert.Equal(t, "knock to Baophes delivered", line["msg"])
			assert.Equal(t, tc.wantStatus, line["status"])
		})
	}
}

func TestLogHidesDebugByDefault(t *testing.T) {
	buf := captureLog(t, pterm.LogLevelInfo)

	assert.False(t, DebugEnabled())
	assert.True(t, Enabled(LevelSuccess))
	LogDebug("sending %s", "<Packet HEY 0x0531b00b>")
	assert.Empty(t, buf.String())

	EnableDebug()
	assert.True(t, DebugEnabled())
	LogDebug("sending %s", "<Packet HEY 0x0531b00b>")
	assert.Contains(t, buf.String(), "<Packet HEY 0x0531b00b>")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "level(9)", Level(9).String())
}
