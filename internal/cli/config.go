package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the serve command's YAML configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	FlowsDir string `yaml:"flows_dir"`
	MaxSteps int    `yaml:"max_steps"`
	LogLevel string `yaml:"log_level"`

	Redis RedisConfig `yaml:"redis"`

	Templates TemplatesConfig `yaml:"templates"`

	// Departments is a static roster for deployments where the CRM's
	// operator directory is not wired in.
	Departments []DepartmentConfig `yaml:"departments"`
}

// RedisConfig enables Redis-backed sessions, locks and cursors when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	SessionTTL string `yaml:"session_ttl"`
}

// TemplatesConfig overrides the engine message texts.
type TemplatesConfig struct {
	Retry      string `yaml:"retry"`
	Unexpected string `yaml:"unexpected"`
	Fallback   string `yaml:"fallback"`
}

// DepartmentConfig is one department of the static roster.
type DepartmentConfig struct {
	ID        string           `yaml:"id"`
	Name      string           `yaml:"name"`
	Strategy  string           `yaml:"strategy"`
	Operators []OperatorConfig `yaml:"operators"`
}

// OperatorConfig is one operator of the static roster.
type OperatorConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LoadConfig reads a YAML config file. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Listen:   ":8080",
		FlowsDir: "./flows",
		LogLevel: "info",
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// ParseSessionTTL parses the configured TTL, zero when unset.
func (c RedisConfig) ParseSessionTTL() (time.Duration, error) {
	if c.SessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %w", c.SessionTTL, err)
	}
	return d, nil
}
