package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// Config holds all settings for the calendar client and the assistant
// orchestrator. Values come from the environment at the boundary; flags
// in cmd may override individual fields.
type Config struct {
	// CredentialsFile is the path to the Google OAuth client secrets file.
	CredentialsFile string

	// TokenFile is the path where the Google OAuth token is cached.
	TokenFile string

	// Timezone is the fixed IANA timezone applied to every created event.
	Timezone string

	// OpenAIAPIKey authenticates against the assistant provider.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the assistant API endpoint (tests, proxies).
	OpenAIBaseURL string

	// Model is the assistant model identifier.
	Model string

	// PollInterval is the delay between run status polls.
	PollInterval time.Duration

	// RunTimeout bounds a single assistant run end to end.
	RunTimeout time.Duration
}

const (
	DefaultTimezone     = "UTC"
	DefaultModel        = "gpt-4-turbo"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultRunTimeout   = 2 * time.Minute
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

// Load reads all env vars and builds the config.
func Load() *Config {
	return &Config{
		CredentialsFile: getEnv("MEETFOLD_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:       getEnv("MEETFOLD_TOKEN_FILE", defaultTokenFile()),
		Timezone:        getEnv("MEETFOLD_TIMEZONE", DefaultTimezone),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		Model:           getEnv("MEETFOLD_MODEL", DefaultModel),
		PollInterval:    getDurationEnv("MEETFOLD_POLL_INTERVAL", DefaultPollInterval),
		RunTimeout:      getDurationEnv("MEETFOLD_RUN_TIMEOUT", DefaultRunTimeout),
	}
}

// Validate checks settings that every command depends on.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials file path must not be empty")
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("run timeout must be positive, got %s", c.RunTimeout)
	}
	return nil
}

// defaultTokenFile places the cached token under the user cache dir.
func defaultTokenFile() string {
	return filepath.Join(userCacheDir(), "meetfold", "google.token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
