package config

import (
	"fmt"
	"strings"
)

// DisplayConfig holds the cosmetic values baked into pull request links
// and file locators.
type DisplayConfig struct {
	ProjectLabel  string
	PublicBaseURL string
	DefaultAuthor string
}

// LoadDisplayConfigFromEnv loads display configuration from environment variables.
func LoadDisplayConfigFromEnv() DisplayConfig {
	return DisplayConfig{
		ProjectLabel:  GetEnv("PROJECT_LABEL", "project-GIT"),
		PublicBaseURL: strings.TrimRight(GetEnv("PUBLIC_BASE_URL", "https://codeshelf.com"), "/"),
		DefaultAuthor: GetEnv("PR_DEFAULT_AUTHOR", "Anonymous"),
	}
}

// Validate validates display configuration.
func (c DisplayConfig) Validate() error {
	if c.ProjectLabel == "" {
		return fmt.Errorf("PROJECT_LABEL is required")
	}
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	return nil
}
