// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultScope is the only Drive permission the mirror needs.
const DefaultScope = "https://www.googleapis.com/auth/drive.readonly"

// Config holds all mirror configuration.
type Config struct {
	// Credentials
	CredentialsDir string
	Scopes         []string

	// Mirror
	SourceFolder    string // folder ID or shareable URL
	DestRoot        string
	ContinueOnError bool
	MaxDepth        int

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics (optional — empty disables the endpoint)
	MetricsAddr string
}

// Load reads configuration from environment variables with defaults.
// Command-line flags override these in the CLI.
func Load() *Config {
	return &Config{
		CredentialsDir:  envOr("CREDENTIALS_DIR", "credentials"),
		Scopes:          splitScopes(envOr("DRIVE_SCOPES", DefaultScope)),
		SourceFolder:    envOr("SOURCE_FOLDER", ""),
		DestRoot:        envOr("DEST_ROOT", ""),
		ContinueOnError: envBool("CONTINUE_ON_ERROR", false),
		MaxDepth:        envInt("MAX_DEPTH", 0),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogFormat:       envOr("LOG_FORMAT", "console"),
		MetricsAddr:     envOr("METRICS_ADDR", ""),
	}
}

// Validate checks the fields the mirror command requires.
func (c *Config) Validate() error {
	if c.SourceFolder == "" {
		return fmt.Errorf("source folder is required")
	}
	if c.DestRoot == "" {
		return fmt.Errorf("destination root is required")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("at least one OAuth scope is required")
	}
	return nil
}

func splitScopes(s string) []string {
	var scopes []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
