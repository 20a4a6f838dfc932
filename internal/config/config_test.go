package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// setupAndRestoreEnv saves original env vars and sets new ones for testing.
func setupAndRestoreEnv(t *testing.T, envVars map[string]string) func() {
	t.Helper()
	originalEnv := make(map[string]string)
	for key := range envVars {
		originalEnv[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	for key, value := range envVars {
		os.Setenv(key, value)
	}
	return func() {
		for key := range envVars {
			os.Unsetenv(key)
		}
		for key, value := range originalEnv {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: LogFormatJSON,
			Output: "stdout",
		},
		Storage: StorageConfig{
			BaseDir:        "/srv/git",
			WorkspaceDir:   "/tmp",
			DefaultBranch:  "master",
			GitBinary:      "git",
			CommandTimeout: time.Minute,
			AuthorName:     "codeshelf",
			AuthorEmail:    "codeshelf@localhost",
		},
		Lock: LockConfig{
			TTL:           30 * time.Second,
			WaitTimeout:   30 * time.Second,
			RetryInterval: 100 * time.Millisecond,
			Prefix:        "lock:",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Display: DisplayConfig{
			ProjectLabel:  "project-GIT",
			PublicBaseURL: "https://codeshelf.com",
			DefaultAuthor: "Anonymous",
		},
		GinMode: "release",
	}
}

func TestLoadFromEnv_DefaultValues(t *testing.T) {
	restore := setupAndRestoreEnv(t, map[string]string{
		"SERVER_PORT":        "",
		"LOG_LEVEL":          "",
		"GIN_MODE":           "",
		"GIT_DEFAULT_BRANCH": "",
		"LOCK_TTL":           "",
		"PROJECT_LABEL":      "",
	})
	defer restore()

	cfg := LoadFromEnv()
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "master", cfg.Storage.DefaultBranch)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "project-GIT", cfg.Display.ProjectLabel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_CustomValues(t *testing.T) {
	restore := setupAndRestoreEnv(t, map[string]string{
		"SERVER_PORT":        ":9090",
		"LOG_LEVEL":          "debug",
		"GIN_MODE":           "debug",
		"GIT_DEFAULT_BRANCH": "main",
		"LOCK_TTL":           "10s",
		"REDIS_ADDR":         "redis:6379",
		"PUBLIC_BASE_URL":    "https://git.example.org/",
	})
	defer restore()

	cfg := LoadFromEnv()
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "main", cfg.Storage.DefaultBranch)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "https://git.example.org", cfg.Display.PublicBaseURL)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		err := cfg.Validate()
		assert.NoError(t, err)
	})

	t.Run("invalid server config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.ReadTimeout = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server config validation failed")
	})

	t.Run("invalid logger config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logger.Level = "invalid"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger config validation failed")
	})

	t.Run("invalid storage config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.BaseDir = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage config validation failed")
	})

	t.Run("invalid lock config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Lock.RetryInterval = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "lock config validation failed")
	})

	t.Run("invalid redis config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Redis.Addr = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis config validation failed")
	})

	t.Run("invalid display config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Display.ProjectLabel = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "display config validation failed")
	})

	t.Run("invalid gin mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.GinMode = "invalid"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid GIN_MODE")
	})

	t.Run("valid gin modes", func(t *testing.T) {
		validModes := []string{"debug", "release", "test"}
		for _, mode := range validModes {
			cfg := validConfig()
			cfg.GinMode = mode
			err := cfg.Validate()
			assert.NoError(t, err, "mode %s should be valid", mode)
		}
	})
}

func TestStorageConfig_Validate(t *testing.T) {
	cfg := validConfig().Storage
	assert.NoError(t, cfg.Validate())

	cfg.CommandTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "GIT_COMMAND_TIMEOUT")

	cfg = validConfig().Storage
	cfg.AuthorEmail = ""
	assert.ErrorContains(t, cfg.Validate(), "GIT_AUTHOR_EMAIL")
}

func TestLockConfig_Validate(t *testing.T) {
	cfg := validConfig().Lock
	assert.NoError(t, cfg.Validate())

	cfg.TTL = 0
	assert.ErrorContains(t, cfg.Validate(), "LOCK_TTL")

	cfg = validConfig().Lock
	cfg.WaitTimeout = 0
	assert.NoError(t, cfg.Validate(), "zero wait means try once")
}
