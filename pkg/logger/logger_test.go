package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), "logger output should be valid JSON")
	return out
}

func TestNewWithWriter_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Str("key", "value").Msg("test message")

	out := logLine(t, &buf)
	assert.Equal(t, "test message", out["message"])
	assert.Equal(t, "value", out["key"])
	assert.Equal(t, "info", out["level"])
	assert.Contains(t, out, "time", "should include timestamp")
}

func TestForComponent_TagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	log := ForComponent(NewWithWriter("info", &buf), "rates")

	log.Info().Msg("refreshed")

	out := logLine(t, &buf)
	assert.Equal(t, "rates", out[FieldComponent])
}

func TestForAccount_TagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	log := ForAccount(NewWithWriter("info", &buf), 42)

	log.Info().Msg("rehydrated")

	out := logLine(t, &buf)
	assert.Equal(t, float64(42), out[FieldAccount])
}

func TestForSlot_ComposesWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := ForSlot(ForComponent(NewWithWriter("info", &buf), "storage_pool"), 2)

	log.Info().Msg("store")

	out := logLine(t, &buf)
	assert.Equal(t, "storage_pool", out[FieldComponent])
	assert.Equal(t, float64(2), out[FieldSlot])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run("level "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Debug().Msg("should not appear")
	log.Info().Msg("should not appear")
	assert.Empty(t, buf.String())

	log.Error().Msg("error msg")
	assert.NotEmpty(t, buf.String())
}
