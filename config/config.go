// Package config loads the automesh daemon configuration from a YAML file.
// Missing files and missing fields fall back to working defaults, so a bare
// `automesh serve` runs without any configuration at all.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/automesh/core"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file location used when none is given.
const DefaultPath = "automesh.yaml"

// Config holds the daemon configuration.
type Config struct {
	// Listen is the HTTP listen address for the admin API.
	Listen string `yaml:"listen"`

	// StatePath is the JSON file the engine persists its state to. Empty
	// keeps all state in memory.
	StatePath string `yaml:"state_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Engine EngineConfig `yaml:"engine"`
	AI     AIConfig     `yaml:"ai"`
}

// EngineConfig mirrors the runtime-tunable engine settings.
type EngineConfig struct {
	Enabled              *bool `yaml:"enabled"`
	MaxQueueSize         int   `yaml:"max_queue_size"`
	MaxLogSize           int   `yaml:"max_log_size"`
	ExecutionDelay       int64 `yaml:"execution_delay_ms"`
	MaxActionsPerMinute  int   `yaml:"max_actions_per_minute"`
	ParallelExecution    bool  `yaml:"enable_parallel_execution"`
	DisableSeeding       bool  `yaml:"disable_seeding"`
	WebhookTimeoutMillis int64 `yaml:"webhook_timeout_ms"`
}

// AIConfig selects the generator backing ai_generate actions.
type AIConfig struct {
	// Provider is "openai", "anthropic", or empty to disable AI actions.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults, any other read or parse failure is returned as an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Settings converts the engine section into core.Settings, filling gaps
// with the engine defaults.
func (c *Config) Settings() core.Settings {
	s := core.DefaultSettings()

	if c.Engine.Enabled != nil {
		s.Enabled = *c.Engine.Enabled
	}

	if c.Engine.MaxQueueSize > 0 {
		s.MaxQueueSize = c.Engine.MaxQueueSize
	}

	if c.Engine.MaxLogSize > 0 {
		s.MaxLogSize = c.Engine.MaxLogSize
	}

	if c.Engine.ExecutionDelay > 0 {
		s.ExecutionDelay = time.Duration(c.Engine.ExecutionDelay) * time.Millisecond
	}

	if c.Engine.MaxActionsPerMinute > 0 {
		s.MaxActionsPerMinute = c.Engine.MaxActionsPerMinute
	}

	s.EnableParallelExecution = c.Engine.ParallelExecution

	return s
}
