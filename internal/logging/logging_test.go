package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestReminderLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	base := New("debug", false, &buf)
	logger := NewReminderLogger(Component(&base, "reminders"))

	logger.Error("alert failed", "reminder_id", "med-1", "attempt", 2, "error", errors.New("timeout"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "alert failed", entry["message"])
	assert.Equal(t, "reminders", entry["component"])
	assert.Equal(t, "med-1", entry["reminder_id"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestReminderLogger_OddFieldsAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	base := New("info", false, &buf)
	logger := NewReminderLogger(&base)

	logger.Debug("hidden", "k", "v")
	assert.Zero(t, buf.Len())

	logger.Info("evaluated", "total", 3, "dangling")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(3), entry["total"])
	assert.NotContains(t, entry, "dangling")
}
