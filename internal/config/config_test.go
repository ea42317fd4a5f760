package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("CONTEXTMAN_MODEL", "")
	t.Setenv("CONTEXTMAN_ADDR", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.GroqAPIKey)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBytes)
	assert.Equal(t, 180*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, 8, cfg.AgentMaxSteps)
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("CONTEXTMAN_MODEL", "llama-3.1-8b-instant")
	t.Setenv("CONTEXTMAN_ADDR", "0.0.0.0:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Model)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("CONTEXTMAN_MODEL", "")
	t.Setenv("CONTEXTMAN_ADDR", "")

	path := filepath.Join(t.TempDir(), "contextman.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"model: llama-3.3-70b-versatile\nagent_max_steps: 4\nextract_timeout: 90s\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Model)
	assert.Equal(t, 4, cfg.AgentMaxSteps)
	assert.Equal(t, 90*time.Second, cfg.ExtractTimeout)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("CONTEXTMAN_MODEL", "env-model")

	path := filepath.Join(t.TempDir(), "contextman.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: file-model\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Model)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.NoError(t, err)
}

func TestLoadMalformedFileFails(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")

	path := filepath.Join(t.TempDir(), "contextman.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Default()
		cfg.GroqAPIKey = "k"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no key", func(c *Config) { c.GroqAPIKey = "" }, true},
		{"no model", func(c *Config) { c.Model = "" }, true},
		{"no addr", func(c *Config) { c.ListenAddr = "" }, true},
		{"zero body cap", func(c *Config) { c.MaxRequestBytes = 0 }, true},
		{"zero prompt cap", func(c *Config) { c.MaxPromptBytes = 0 }, true},
		{"zero timeout", func(c *Config) { c.ExtractTimeout = 0 }, true},
		{"zero steps", func(c *Config) { c.AgentMaxSteps = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
