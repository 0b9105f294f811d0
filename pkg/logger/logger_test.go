package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/config"
)

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		l, err := New(&config.LoggingConfig{Level: "debug"})
		require.NoError(t, err)
		assert.NotNil(t, l.GetZerolog())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(&config.LoggingConfig{Level: "chatty"})
		assert.Error(t, err)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		level, err := parseLogLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, level)
	}

	_, err := parseLogLevel("nope")
	assert.Error(t, err)
}

func TestGetLoggerNeverNil(t *testing.T) {
	assert.NotNil(t, GetLogger())
}

func TestTestLoggerRecordsMessages(t *testing.T) {
	l := NewTestLogger()

	l.Info("plain message")
	l.WarnWithFields("with fields", map[string]interface{}{"count": 3})

	messages := l.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "INFO", messages[0].Level)
	assert.Equal(t, "plain message", messages[0].Message)
	assert.Equal(t, "WARN", messages[1].Level)
	assert.Equal(t, 3, messages[1].Fields["count"])
}

func TestTestLoggerScopedFieldsReachParent(t *testing.T) {
	l := NewTestLogger()

	l.WithField("query", "golang").WithError(errors.New("boom")).Error("scrape failed")

	messages := l.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "ERROR", messages[0].Level)
	assert.Equal(t, "golang", messages[0].Fields["query"])
	assert.Equal(t, "boom", messages[0].Fields["error"])
}

func TestTestLoggerScopeMergesCallFields(t *testing.T) {
	l := NewTestLogger()

	l.WithField("cycle", 2).InfoWithFields("cycle finished", map[string]interface{}{"new": 5})

	messages := l.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, 2, messages[0].Fields["cycle"])
	assert.Equal(t, 5, messages[0].Fields["new"])
}
