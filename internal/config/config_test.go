package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "credentials.json", cfg.CredentialsFile)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultRunTimeout, cfg.RunTimeout)
	assert.NotEmpty(t, cfg.TokenFile)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEETFOLD_TIMEZONE", "Europe/Berlin")
	t.Setenv("MEETFOLD_MODEL", "gpt-4o")
	t.Setenv("MEETFOLD_POLL_INTERVAL", "2s")
	t.Setenv("MEETFOLD_RUN_TIMEOUT", "30s")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.RunTimeout)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestLoadDurationFallbacks(t *testing.T) {
	// Plain integers are treated as milliseconds, garbage falls back.
	t.Setenv("MEETFOLD_POLL_INTERVAL", "250")
	t.Setenv("MEETFOLD_RUN_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, DefaultRunTimeout, cfg.RunTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty credentials file", mutate: func(c *Config) { c.CredentialsFile = "" }, wantErr: true},
		{name: "empty timezone", mutate: func(c *Config) { c.Timezone = "" }, wantErr: true},
		{name: "zero poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: true},
		{name: "negative run timeout", mutate: func(c *Config) { c.RunTimeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
