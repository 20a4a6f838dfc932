package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StorageConfig holds where bare repositories and scratch workspaces live
// and how the git binary is invoked.
type StorageConfig struct {
	// BaseDir is the root directory holding <name>.git bare repositories.
	BaseDir string
	// WorkspaceDir is the parent directory for ephemeral clones.
	WorkspaceDir string
	// DefaultBranch is the branch seeded by repository creation.
	DefaultBranch string
	// GitBinary is the git executable used for mutations.
	GitBinary string
	// CommandTimeout bounds every single git invocation.
	CommandTimeout time.Duration
	// AuthorName and AuthorEmail form the committer identity.
	AuthorName  string
	AuthorEmail string
}

// LoadStorageConfigFromEnv loads storage configuration from environment variables.
func LoadStorageConfigFromEnv() StorageConfig {
	return StorageConfig{
		BaseDir:        GetEnv("GIT_BASE_DIR", filepath.Join(os.TempDir(), "codeshelf", "repositories")),
		WorkspaceDir:   GetEnv("GIT_WORKSPACE_DIR", os.TempDir()),
		DefaultBranch:  GetEnv("GIT_DEFAULT_BRANCH", "master"),
		GitBinary:      GetEnv("GIT_BINARY", "git"),
		CommandTimeout: GetEnvDuration("GIT_COMMAND_TIMEOUT", 2*time.Minute),
		AuthorName:     GetEnv("GIT_AUTHOR_NAME", "codeshelf"),
		AuthorEmail:    GetEnv("GIT_AUTHOR_EMAIL", "codeshelf@localhost"),
	}
}

// Validate validates storage configuration.
func (c StorageConfig) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("GIT_BASE_DIR is required")
	}
	if c.DefaultBranch == "" {
		return fmt.Errorf("GIT_DEFAULT_BRANCH is required")
	}
	if c.GitBinary == "" {
		return fmt.Errorf("GIT_BINARY is required")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("GIT_COMMAND_TIMEOUT must be greater than 0")
	}
	if c.AuthorName == "" || c.AuthorEmail == "" {
		return fmt.Errorf("GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL are required")
	}
	return nil
}
