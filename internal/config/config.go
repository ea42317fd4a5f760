// Package config provides the immutable service configuration, built once at
// startup and injected into the HTTP handlers and delegates.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultModel is the Groq model the service runs on. It is fixed per
// deployment, not selectable per request.
const DefaultModel = "mixtral-8x7b-32768"

// Config holds all process-wide settings. It is read-only after Load.
type Config struct {
	// GroqAPIKey authenticates against the Groq API. Env only, never from file.
	GroqAPIKey string `yaml:"-"`

	// Model is the chat model used for both extraction decisions and synthesis.
	Model string `yaml:"model"`

	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// BrowserExecPath optionally pins the Chrome/Chromium binary used by the
	// extraction agent. Empty means auto-discovery.
	BrowserExecPath string `yaml:"browser_exec_path"`

	// MaxRequestBytes caps inbound request bodies.
	MaxRequestBytes int64 `yaml:"max_request_bytes"`

	// MaxPromptBytes caps the assembled user message sent to the model.
	// Longer input is truncated, not rejected.
	MaxPromptBytes int `yaml:"max_prompt_bytes"`

	// ExtractTimeout bounds a single /parse agent run end to end.
	ExtractTimeout time.Duration `yaml:"extract_timeout"`

	// SynthesizeTimeout bounds the single /synthesize completion call.
	SynthesizeTimeout time.Duration `yaml:"synthesize_timeout"`

	// AgentMaxSteps limits the extraction agent's decide/act loop.
	AgentMaxSteps int `yaml:"agent_max_steps"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:             DefaultModel,
		ListenAddr:        "127.0.0.1:8000",
		MaxRequestBytes:   1 << 20,  // 1 MiB
		MaxPromptBytes:    256 << 10, // 256 KiB
		ExtractTimeout:    180 * time.Second,
		SynthesizeTimeout: 60 * time.Second,
		AgentMaxSteps:     8,
	}
}

// fileConfig is the YAML shape of the optional config file. Durations are
// strings ("90s") parsed on merge; yaml.v3 has no native duration support.
type fileConfig struct {
	Model             string `yaml:"model"`
	ListenAddr        string `yaml:"listen_addr"`
	BrowserExecPath   string `yaml:"browser_exec_path"`
	MaxRequestBytes   int64  `yaml:"max_request_bytes"`
	MaxPromptBytes    int    `yaml:"max_prompt_bytes"`
	ExtractTimeout    string `yaml:"extract_timeout"`
	SynthesizeTimeout string `yaml:"synthesize_timeout"`
	AgentMaxSteps     int    `yaml:"agent_max_steps"`
}

// Load builds the configuration with layered precedence:
// defaults, then the optional YAML file at path, then environment variables.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, data); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Model != "" {
		cfg.Model = fc.Model
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.BrowserExecPath != "" {
		cfg.BrowserExecPath = fc.BrowserExecPath
	}
	if fc.MaxRequestBytes > 0 {
		cfg.MaxRequestBytes = fc.MaxRequestBytes
	}
	if fc.MaxPromptBytes > 0 {
		cfg.MaxPromptBytes = fc.MaxPromptBytes
	}
	if fc.AgentMaxSteps > 0 {
		cfg.AgentMaxSteps = fc.AgentMaxSteps
	}

	if fc.ExtractTimeout != "" {
		d, err := time.ParseDuration(fc.ExtractTimeout)
		if err != nil {
			return fmt.Errorf("extract_timeout: %w", err)
		}
		cfg.ExtractTimeout = d
	}
	if fc.SynthesizeTimeout != "" {
		d, err := time.ParseDuration(fc.SynthesizeTimeout)
		if err != nil {
			return fmt.Errorf("synthesize_timeout: %w", err)
		}
		cfg.SynthesizeTimeout = d
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := os.Getenv("CONTEXTMAN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CONTEXTMAN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("CONTEXTMAN_BROWSER_PATH"); v != "" {
		cfg.BrowserExecPath = v
	}
}

// Validate reports configuration that cannot produce a working service.
// A missing API key is fatal at startup by design: the process must not
// start accepting requests it can only fail.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY environment variable is not set")
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("max_request_bytes must be positive, got %d", c.MaxRequestBytes)
	}
	if c.MaxPromptBytes <= 0 {
		return fmt.Errorf("max_prompt_bytes must be positive, got %d", c.MaxPromptBytes)
	}
	if c.ExtractTimeout <= 0 || c.SynthesizeTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.AgentMaxSteps <= 0 {
		return fmt.Errorf("agent_max_steps must be positive, got %d", c.AgentMaxSteps)
	}
	return nil
}
