// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Templates TemplatesConfig `yaml:"templates"`
	Content   ContentConfig   `yaml:"content"`
	Settings  SettingsConfig  `yaml:"settings"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// TemplatesConfig configures the template tree and catalog sync.
type TemplatesConfig struct {
	Root        string        `yaml:"root"`
	Extension   string        `yaml:"extension"`     // including the dot
	SyncOnStart *bool         `yaml:"sync_on_start"` // default true
	Watch       bool          `yaml:"watch"`         // resync when files change
	Debounce    time.Duration `yaml:"debounce"`
	Workers     int           `yaml:"workers"` // parallel parsers, 0 = GOMAXPROCS
}

// ShouldSyncOnStart reports whether a catalog sync runs before serving.
func (t TemplatesConfig) ShouldSyncOnStart() bool {
	return t.SyncOnStart == nil || *t.SyncOnStart
}

// ContentConfig configures content resolution.
type ContentConfig struct {
	DefaultModule string `yaml:"default_module"` // module for unprefixed paths
}

// SettingsConfig configures the site settings cache.
type SettingsConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"` // negative disables periodic reload
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable the metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CONTENTGATE_SERVER_HOST          - Server host (default: 0.0.0.0)
//	CONTENTGATE_SERVER_PORT          - Server port (default: 8080)
//	CONTENTGATE_DATABASE_DRIVER      - sqlite or memory (default: sqlite)
//	CONTENTGATE_DATABASE_DSN         - Database path (default: contentgate.db)
//	CONTENTGATE_TEMPLATES_ROOT       - Template tree (default: templates)
//	CONTENTGATE_TEMPLATES_EXTENSION  - Template extension (default: .html)
//	CONTENTGATE_TEMPLATES_WATCH      - Resync on file changes (default: false)
//	CONTENTGATE_TEMPLATES_SYNC       - Sync on start (default: true)
//	CONTENTGATE_DEFAULT_MODULE       - Module for unprefixed paths (default: pages)
//	CONTENTGATE_SETTINGS_REFRESH     - Settings reload interval (default: 30s)
//	CONTENTGATE_LOG_LEVEL            - debug, info, warn, error (default: info)
//	CONTENTGATE_LOG_FORMAT           - json or console (default: json)
//	CONTENTGATE_METRICS_ENABLED      - Enable the metrics endpoint
//	CONTENTGATE_METRICS_PATH         - Metrics endpoint path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads from file when it exists and from environment
// variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CONTENTGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("CONTENTGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CONTENTGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CONTENTGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CONTENTGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("CONTENTGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CONTENTGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Template configuration
	if v := os.Getenv("CONTENTGATE_TEMPLATES_ROOT"); v != "" {
		cfg.Templates.Root = v
	}
	if v := os.Getenv("CONTENTGATE_TEMPLATES_EXTENSION"); v != "" {
		cfg.Templates.Extension = v
	}
	if v := os.Getenv("CONTENTGATE_TEMPLATES_WATCH"); v != "" {
		cfg.Templates.Watch = parseBool(v)
	}
	if v := os.Getenv("CONTENTGATE_TEMPLATES_SYNC"); v != "" {
		b := parseBool(v)
		cfg.Templates.SyncOnStart = &b
	}
	if v := os.Getenv("CONTENTGATE_TEMPLATES_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Templates.Debounce = d
		}
	}

	// Content configuration
	if v := os.Getenv("CONTENTGATE_DEFAULT_MODULE"); v != "" {
		cfg.Content.DefaultModule = v
	}
	if v := os.Getenv("CONTENTGATE_SETTINGS_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Settings.RefreshInterval = d
		}
	}

	// Logging configuration
	if v := os.Getenv("CONTENTGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONTENTGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CONTENTGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONTENTGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "contentgate.db"
	}

	if cfg.Templates.Root == "" {
		cfg.Templates.Root = "templates"
	}
	if cfg.Templates.Extension == "" {
		cfg.Templates.Extension = ".html"
	}
	if cfg.Templates.Debounce == 0 {
		cfg.Templates.Debounce = 500 * time.Millisecond
	}

	if cfg.Content.DefaultModule == "" {
		cfg.Content.DefaultModule = "pages"
	}

	if cfg.Settings.RefreshInterval == 0 {
		cfg.Settings.RefreshInterval = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{DriverSQLite: true, DriverMemory: true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	if !strings.HasPrefix(cfg.Templates.Extension, ".") {
		return fmt.Errorf("templates.extension must start with a dot, got %q", cfg.Templates.Extension)
	}
	if cfg.Templates.Workers < 0 {
		return fmt.Errorf("templates.workers must not be negative")
	}
	if cfg.Templates.Debounce < 0 {
		return fmt.Errorf("templates.debounce must not be negative")
	}

	if strings.Contains(cfg.Content.DefaultModule, "/") {
		return fmt.Errorf("content.default_module must be a single path segment, got %q", cfg.Content.DefaultModule)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", cfg.Metrics.Path)
	}

	return nil
}
