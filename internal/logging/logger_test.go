package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With("component", "llm")

	logger.Warn("LLM request failed", "attempt", 2, "model", "gemini-2.5-flash")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "LLM request failed", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "llm", fields["component"])
	assert.Equal(t, int64(2), fields["attempt"])
	assert.Equal(t, "gemini-2.5-flash", fields["model"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewBuildsLogger(t *testing.T) {
	logger, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	logger.Debug("ready")
	NewNop().Info("discarded")
}
