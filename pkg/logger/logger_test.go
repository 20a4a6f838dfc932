package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appConfig "github.com/festy23/codeshelf/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("creates logger from env", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "info")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("LOG_OUTPUT", "stdout")

		logger, err := New()
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("creates development logger from env", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "console")

		logger, err := New()
		require.NoError(t, err)
		require.NotNil(t, logger)
	})
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  appConfig.LoggerConfig
	}{
		{"production info", appConfig.LoggerConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"development debug", appConfig.LoggerConfig{Level: "debug", Format: "console", Output: "stdout"}},
		{"warn to stderr", appConfig.LoggerConfig{Level: "warn", Format: "json", Output: "stderr"}},
		{"invalid level falls back to info", appConfig.LoggerConfig{Level: "loud", Format: "json", Output: "stdout"}},
		{"empty output", appConfig.LoggerConfig{Level: "error", Format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewWithConfig(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Infow("message", "repo", "demo")
		})
	}
}

func TestNewWithConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeshelf.log")

	logger, err := NewWithConfig(appConfig.LoggerConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Infow("repository created", "repo", "demo")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"repo":"demo"`)
	assert.Contains(t, string(data), `"service":"codeshelf"`)
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()

	Component(base, "lock").Infow("acquired", "lock_key", "repo:demo")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "lock", entry.LoggerName)
	assert.Equal(t, "lock", entry.ContextMap()["component"])
	assert.Equal(t, "repo:demo", entry.ContextMap()["lock_key"])
}

func TestLoggerIsProduction(t *testing.T) {
	assert.True(t, appConfig.LoggerConfig{Level: "info", Format: "json"}.IsProduction())
	assert.False(t, appConfig.LoggerConfig{Level: "debug", Format: "json"}.IsProduction())
	assert.False(t, appConfig.LoggerConfig{Level: "info", Format: "console"}.IsProduction())
}

func BenchmarkLoggerInfoWithFields(b *testing.B) {
	logger, err := NewWithConfig(appConfig.LoggerConfig{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Infow("skipped", "repo", "demo", "branch", "master")
	}
}
