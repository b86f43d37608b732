// Package config holds the grounder's runtime configuration: yaml-backed
// with sane defaults and environment overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all groundlog configuration.
type Config struct {
	// Grounding engine settings.
	Grounder GrounderConfig `yaml:"grounder"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// GrounderConfig configures the engine.
type GrounderConfig struct {
	// Workers bounds the per-stratum worker pool. 0 means NumCPU.
	Workers int `yaml:"workers"`
	// FactLimit warns when the fluent fact set exceeds it. 0 means
	// unlimited.
	FactLimit int `yaml:"fact_limit"`
}

// LoggingConfig configures the zap logger at the CLI edge.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Grounder: GrounderConfig{
			Workers:   runtime.NumCPU(),
			FactLimit: 0,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a yaml config file over the defaults, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.Grounder.Workers <= 0 {
		cfg.Grounder.Workers = runtime.NumCPU()
	}
	return cfg, nil
}

// applyEnv overrides fields from GROUNDLOG_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("GROUNDLOG_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Grounder.Workers = n
		}
	}
	if v := os.Getenv("GROUNDLOG_FACT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Grounder.FactLimit = n
		}
	}
	if v := os.Getenv("GROUNDLOG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
