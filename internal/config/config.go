package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the client.
type Config struct {
	// BaseURL is the blog service's API root.
	BaseURL string

	// PageSize is how many posts one page of the feed holds.
	PageSize int

	// PopularLimit caps the popular sidebar.
	PopularLimit int

	// RequestTimeout bounds every API call, including in-flight like
	// toggles, so a dead server settles as a failure instead of hanging.
	RequestTimeout time.Duration

	// StatePath is the SQLite file holding the session token and the last
	// page snapshot.
	StatePath string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() (*Config, error) {
	baseURL := os.Getenv("BLOG_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8090/api/v1"
	}

	pageSize := 10
	if v := os.Getenv("BLOG_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BLOG_PAGE_SIZE %q", v)
		}
		pageSize = n
	}

	popularLimit := 6
	if v := os.Getenv("BLOG_POPULAR_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BLOG_POPULAR_LIMIT %q", v)
		}
		popularLimit = n
	}

	timeout := 30 * time.Second
	if v := os.Getenv("BLOG_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid BLOG_REQUEST_TIMEOUT %q", v)
		}
		timeout = d
	}

	statePath := os.Getenv("BLOG_STATE_PATH")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		statePath = filepath.Join(home, ".blogview", "state.db")
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &Config{
		BaseURL:        baseURL,
		PageSize:       pageSize,
		PopularLimit:   popularLimit,
		RequestTimeout: timeout,
		StatePath:      statePath,
	}, nil
}
