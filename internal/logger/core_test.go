package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDBCoreForwardsFromLevel(t *testing.T) {
	base, observed := observer.New(zapcore.DebugLevel)
	writer := &DBLogWriter{logChan: make(chan LogEntry, 10)}
	log := zap.New(NewDBCore(base, writer, zapcore.WarnLevel))

	log.Info("command succeeded")
	log.With(zap.String("session", "s1")).Warn("command failed", zap.String("correlation_id", "c1"))

	assert.Equal(t, 2, observed.Len())
	require.Len(t, writer.logChan, 1)
	entry := <-writer.logChan
	assert.Equal(t, "command failed", entry.Message)
	assert.Equal(t, "s1", entry.SessionID)
	assert.Equal(t, "c1", entry.CorrelationID)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
}

func TestAddLogDropsWhenFull(t *testing.T) {
	writer := &DBLogWriter{logChan: make(chan LogEntry, 1)}
	writer.AddLog(LogEntry{Message: "first"})
	writer.AddLog(LogEntry{Message: "second"})

	require.Len(t, writer.logChan, 1)
	assert.Equal(t, "first", (<-writer.logChan).Message)
}

func TestMapLevelToInt(t *testing.T) {
	assert.Equal(t, 10, mapLevelToInt(zapcore.DebugLevel))
	assert.Equal(t, 40, mapLevelToInt(zapcore.ErrorLevel))
}
