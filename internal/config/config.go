package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Scan   ScanConfig   `mapstructure:"scan"`
	Cache  CacheConfig  `mapstructure:"cache"`
	NATS   NATSConfig   `mapstructure:"nats"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// ScanConfig controls which files are analyzed and how.
type ScanConfig struct {
	Include          []string      `mapstructure:"include"`
	Exclude          []string      `mapstructure:"exclude"`
	RespectGitignore bool          `mapstructure:"respect_gitignore"`
	Concurrency      int           `mapstructure:"concurrency"`
	FailFast         bool          `mapstructure:"fail_fast"`
	MaxFileSize      int64         `mapstructure:"max_file_size"` // bytes; larger files are reported as failed
	Timeout          time.Duration `mapstructure:"timeout"`       // whole scan; zero disables
}

// CacheConfig holds analysis cache configuration.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MemorySize int    `mapstructure:"memory_size"`
	Path       string `mapstructure:"path"` // bbolt file; empty keeps the cache in memory only
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	Subject       string        `mapstructure:"subject"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// OutputConfig controls how the scan report is rendered.
type OutputConfig struct {
	Format   string `mapstructure:"format"` // json, yaml
	Pretty   bool   `mapstructure:"pretty"`
	Progress bool   `mapstructure:"progress"`
	File     string `mapstructure:"file"` // empty writes to stdout
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Output formats.
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	// Scan defaults
	v.SetDefault("scan.include", []string{"**/*.{js,jsx,ts,tsx,mjs,cjs,mts,cts}"})
	v.SetDefault("scan.exclude", []string{"**/node_modules/**", "**/*.d.ts", "**/.next/**", "**/.git/**"})
	v.SetDefault("scan.respect_gitignore", true)
	v.SetDefault("scan.concurrency", 8)
	v.SetDefault("scan.fail_fast", false)
	v.SetDefault("scan.max_file_size", 2*1024*1024)
	v.SetDefault("scan.timeout", "0s")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.memory_size", 1024)
	v.SetDefault("cache.path", "")

	// NATS defaults
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "pagestatic.reports")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.timeout", "5s")

	// Output defaults
	v.SetDefault("output.format", OutputFormatJSON)
	v.SetDefault("output.pretty", true)
	v.SetDefault("output.progress", false)
	v.SetDefault("output.file", "")

	// Logging defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "json")
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) (*Config, error) {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Scan.Include) == 0 {
		return errors.New("scan.include must list at least one pattern")
	}

	if c.Scan.Concurrency < 1 {
		return errors.New("scan.concurrency must be at least 1")
	}

	if c.Scan.MaxFileSize < 0 {
		return errors.New("scan.max_file_size cannot be negative")
	}

	if c.Scan.Timeout < 0 {
		return errors.New("scan.timeout cannot be negative")
	}

	if c.Cache.Enabled && c.Cache.MemorySize < 1 {
		return errors.New("cache.memory_size must be at least 1 when the cache is enabled")
	}

	if c.NATS.Enabled {
		if err := c.NATS.Validate(); err != nil {
			return err
		}
	}

	if !slices.Contains([]string{OutputFormatJSON, OutputFormatYAML}, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("output.format must be %s or %s, got %q", OutputFormatJSON, OutputFormatYAML, c.Output.Format)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if !slices.Contains([]string{"json", "text"}, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// Validate checks the NATS settings needed to publish reports.
func (n NATSConfig) Validate() error {
	if n.URL == "" {
		return errors.New("NATS URL cannot be empty")
	}

	parsed, err := url.Parse(n.URL)
	if err != nil || (parsed.Scheme != "nats" && parsed.Scheme != "tls") || parsed.Host == "" {
		return errors.New("invalid NATS URL scheme")
	}

	if n.Subject == "" || strings.ContainsAny(n.Subject, " \t\r\n") {
		return errors.New("NATS subject must be a non-empty token without whitespace")
	}

	if n.MaxReconnects < 0 {
		return errors.New("max reconnects cannot be negative")
	}

	if n.ReconnectWait < 0 {
		return errors.New("reconnect wait cannot be negative")
	}

	if n.Timeout < 0 {
		return errors.New("NATS timeout cannot be negative")
	}

	return nil
}
