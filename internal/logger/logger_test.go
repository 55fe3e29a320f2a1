package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerUsableBeforeInitialize(t *testing.T) {
	require.NotNil(t, Logger)
	assert.NotPanics(t, func() {
		Logger.Infow("before init", FieldFile, "a.txt")
	})
}

func TestInitialize(t *testing.T) {
	orig := Logger
	t.Cleanup(func() { Logger = orig })

	require.NoError(t, Initialize("debug", false))
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel), "debug should be enabled")

	require.NoError(t, Initialize("", true))
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel), "default level is info")

	assert.Error(t, Initialize("loud", false))
}
