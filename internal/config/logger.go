package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Log encodings understood by pkg/logger.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// LoggerConfig selects where and how the server logs.
type LoggerConfig struct {
	// Level is any zap level name; empty means info.
	Level string
	// Format is LogFormatJSON or LogFormatConsole.
	Format string
	// Output is stdout, stderr or a file path.
	Output string
}

// LoadLoggerConfigFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_OUTPUT.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  GetEnv("LOG_LEVEL", "info"),
		Format: GetEnv("LOG_FORMAT", LogFormatJSON),
		Output: GetEnv("LOG_OUTPUT", "stdout"),
	}
}

// Validate validates logger configuration.
func (c LoggerConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.Format != LogFormatJSON && c.Format != LogFormatConsole {
		return fmt.Errorf("LOG_FORMAT must be %s or %s, got %q", LogFormatJSON, LogFormatConsole, c.Format)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("LOG_OUTPUT must not be empty")
	}
	return nil
}

// IsProduction reports whether the JSON production preset applies. Unknown
// levels count as info.
func (c LoggerConfig) IsProduction() bool {
	if c.Format != LogFormatJSON {
		return false
	}
	level, err := zapcore.ParseLevel(c.Level)
	return err != nil || level > zapcore.DebugLevel
}
