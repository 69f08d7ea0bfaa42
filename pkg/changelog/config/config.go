// Package config loads the application configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
)

// Product is one tracked competitor entry.
type Product struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	IsSelf bool   `yaml:"is_self"`
}

// Oracle configures the classification oracle client.
type Oracle struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	MaxRetries   int    `yaml:"max_retries"`
	RetryDelay   int    `yaml:"retry_delay_seconds"`
	CallTimeout  int    `yaml:"timeout_seconds"`
	PauseBetween int    `yaml:"pause_ms"`
}

// RetryDelayDuration returns the base backoff between oracle attempts.
func (o Oracle) RetryDelayDuration() time.Duration {
	return time.Duration(o.RetryDelay) * time.Second
}

// CallTimeoutDuration returns the per-call oracle timeout.
func (o Oracle) CallTimeoutDuration() time.Duration {
	return time.Duration(o.CallTimeout) * time.Second
}

// PauseDuration returns the pause between consecutive oracle calls.
func (o Oracle) PauseDuration() time.Duration {
	return time.Duration(o.PauseBetween) * time.Millisecond
}

// Storage selects and locates the persistence backend.
type Storage struct {
	Backend string `yaml:"backend"` // "sqlite" or "files"
	Path    string `yaml:"path"`
}

// Admin configures the administrative HTTP server.
type Admin struct {
	Listen     string `yaml:"listen"`
	Password   string `yaml:"password"`
	SessionTTL int    `yaml:"session_ttl_hours"`
}

// SessionTTLDuration returns the admin session lifetime.
func (a Admin) SessionTTLDuration() time.Duration {
	return time.Duration(a.SessionTTL) * time.Hour
}

// Config is the root application configuration.
type Config struct {
	Products []Product `yaml:"products"`
	Oracle   Oracle    `yaml:"oracle"`
	Storage  Storage   `yaml:"storage"`
	Admin    Admin     `yaml:"admin"`
}

// Load reads, validates and defaults a configuration file. The oracle API
// key may be supplied via the CHANGELOG_ORACLE_API_KEY environment
// variable instead of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if key := os.Getenv("CHANGELOG_ORACLE_API_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Oracle.Model == "" {
		c.Oracle.Model = "gpt-4o-mini"
	}
	if c.Oracle.MaxRetries == 0 {
		c.Oracle.MaxRetries = 3
	}
	if c.Oracle.RetryDelay == 0 {
		c.Oracle.RetryDelay = 2
	}
	if c.Oracle.CallTimeout == 0 {
		c.Oracle.CallTimeout = 60
	}
	if c.Oracle.PauseBetween == 0 {
		c.Oracle.PauseBetween = 500
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.Path == "" {
		if c.Storage.Backend == "sqlite" {
			c.Storage.Path = "changelog.db"
		} else {
			c.Storage.Path = "."
		}
	}
	if c.Admin.Listen == "" {
		c.Admin.Listen = ":3003"
	}
	if c.Admin.SessionTTL == 0 {
		c.Admin.SessionTTL = 24
	}
}

func (c *Config) validate() error {
	if c.Storage.Backend != "sqlite" && c.Storage.Backend != "files" {
		return fmt.Errorf("storage backend %q: %w", c.Storage.Backend, internalerr.ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Products))
	for _, p := range c.Products {
		if p.Name == "" {
			return fmt.Errorf("product with empty name: %w", internalerr.ErrInvalidConfig)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("product %q listed twice: %w", p.Name, internalerr.ErrInvalidConfig)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}
