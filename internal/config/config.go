// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath    string
	TopicsDir       string
	LogLevel        string
	LogFile         string
	DefaultWindow   models.WindowType
	RefreshInterval time.Duration
	NotifyRollover  bool
}

// Default values
const (
	defaultRefreshInterval = 30 * time.Second
	defaultLogLevel        = "info"
	appDirName             = "chatstats"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	window, err := models.ParseWindow(getEnvString("DEFAULT_WINDOW", string(models.WindowDaily)))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_WINDOW: %w", err)
	}

	cfg := &Config{
		DatabasePath:    getEnvString("DATABASE_PATH", defaultPath("statistics.db")),
		TopicsDir:       getEnvString("TOPICS_DIR", defaultPath("topics")),
		LogLevel:        strings.ToLower(getEnvString("LOG_LEVEL", defaultLogLevel)),
		LogFile:         getEnvString("LOG_FILE", ""),
		DefaultWindow:   window,
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		NotifyRollover:  getEnvBool("NOTIFY_ROLLOVER", true),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure the watched topics directory exists
	if err := ensureDir(cfg.TopicsDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DataDir returns the directory holding the database.
func (c *Config) DataDir() string {
	return filepath.Dir(c.DatabasePath)
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, ".chatstats", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// defaultPath returns name inside the default application directory.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appDirName, name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
