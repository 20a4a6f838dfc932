package config

import (
	"fmt"
	"time"
)

// LockConfig holds distributed lock configuration.
type LockConfig struct {
	// TTL is how long a held lock survives without release.
	TTL time.Duration
	// WaitTimeout is how long an acquirer blocks before giving up.
	WaitTimeout time.Duration
	// RetryInterval is the polling period while waiting.
	RetryInterval time.Duration
	// Prefix namespaces lock keys in redis.
	Prefix string
}

// LoadLockConfigFromEnv loads lock configuration from environment variables.
func LoadLockConfigFromEnv() LockConfig {
	return LockConfig{
		TTL:           GetEnvDuration("LOCK_TTL", 30*time.Second),
		WaitTimeout:   GetEnvDuration("LOCK_WAIT_TIMEOUT", 30*time.Second),
		RetryInterval: GetEnvDuration("LOCK_RETRY_INTERVAL", 100*time.Millisecond),
		Prefix:        GetEnv("LOCK_PREFIX", "lock:"),
	}
}

// Validate validates lock configuration.
func (c LockConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be greater than 0")
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("LOCK_WAIT_TIMEOUT must be non-negative")
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("LOCK_RETRY_INTERVAL must be greater than 0")
	}
	return nil
}

// RedisConfig holds redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadRedisConfigFromEnv loads redis configuration from environment variables.
func LoadRedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       GetEnvInt("REDIS_DB", 0),
	}
}

// Validate validates redis configuration.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.DB < 0 {
		return fmt.Errorf("REDIS_DB must be non-negative")
	}
	return nil
}
