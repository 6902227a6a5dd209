package logger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	previous := L()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(previous) })
	return logs
}

func TestLevelFunctions(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Debug("debug message", "k", 1)
	Info("info message", "k", 2)
	Warn("warn message", "k", 3)
	Error("error message", "error", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "info message", entries[1].Message)
	assert.Equal(t, int64(2), entries[1].ContextMap()["k"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	Debug("hidden")
	Info("hidden")
	Warn("shown")

	assert.Equal(t, 1, logs.Len())
}

func TestContextValuesAreAttached(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithRunID(ctx, "run-9")
	ctx = WithComponent(ctx, ComponentNames.Trainer)
	ctx = WithStage(ctx, LogStages.Polling)

	InfoCtx(ctx, "polling", "status", "Training")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "run-9", fields["run_id"])
	assert.Equal(t, "Trainer", fields["component"])
	assert.Equal(t, "Polling", fields["stage"])
	assert.Equal(t, "Training", fields["status"])
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}

func TestInitValidation(t *testing.T) {
	previous := L()
	t.Cleanup(func() { SetLogger(previous) })

	err := Init(Config{Level: "loud", Format: "json", Output: "stdout"})
	assert.Error(t, err)

	err = Init(Config{Level: "debug", Format: "json", Output: filepath.Join(t.TempDir(), "app.log")})
	assert.NoError(t, err)

	err = Init(Config{Level: "info", Format: "json", Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

func TestInitFromEnv(t *testing.T) {
	previous := L()
	t.Cleanup(func() { SetLogger(previous) })

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_OUTPUT", "stderr")
	require.NoError(t, InitFromEnv())
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, L().Core().Enabled(zapcore.WarnLevel))
}
