// Package config provides configuration loading and validation for the dashboard agent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/training-dashboard/internal/types"
)

// Store backends.
const (
	BackendMongoDB  = "mongodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config represents the agent configuration that can be loaded from a JSON or YAML file.
// All fields are optional in the file; missing values fall back to Default().
type Config struct {
	Store StoreConfig `json:"store" yaml:"store"`

	// Scheduling
	Schedule   string `json:"schedule,omitempty" yaml:"schedule" validate:"required"`       // cron spec or descriptor, e.g. "@hourly"
	RunTimeout string `json:"run_timeout,omitempty" yaml:"run_timeout" validate:"required"` // per-run timeout, e.g. "5m"

	// Status server
	HTTPPort           int  `json:"http_port,omitempty" yaml:"http_port" validate:"gte=0,lte=65535"`
	RateLimitPerMinute int  `json:"rate_limit_per_minute,omitempty" yaml:"rate_limit_per_minute" validate:"gte=0"`
	RateLimitDisabled  bool `json:"rate_limit_disabled,omitempty" yaml:"rate_limit_disabled"`

	// Behavior
	LogLevel string `json:"log_level,omitempty" yaml:"log_level" validate:"oneof=debug info warn error"`
	Verbose  bool   `json:"verbose,omitempty" yaml:"verbose"`
	DryRun   bool   `json:"dry_run,omitempty" yaml:"dry_run"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend       string      `json:"backend,omitempty" yaml:"backend" validate:"oneof=mongodb postgres memory"`
	MongoURI      string      `json:"mongodb_uri,omitempty" yaml:"mongodb_uri" validate:"required_if=Backend mongodb"`
	MongoDatabase string      `json:"mongodb_database,omitempty" yaml:"mongodb_database" validate:"required_if=Backend mongodb"`
	DatabaseURL   string      `json:"database_url,omitempty" yaml:"database_url" validate:"required_if=Backend postgres"`
	SeedFile      string      `json:"seed_file,omitempty" yaml:"seed_file"` // memory backend only
	Collections   Collections `json:"collections" yaml:"collections"`
}

// Collections names the source and destination collections (tables for postgres).
type Collections struct {
	Courses      string `json:"courses,omitempty" yaml:"courses" validate:"required"`
	Participants string `json:"participants,omitempty" yaml:"participants" validate:"required"`
	Dashboard    string `json:"dashboard,omitempty" yaml:"dashboard" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:       BackendMongoDB,
			MongoDatabase: "training",
			Collections: Collections{
				Courses:      types.CollectionCourses,
				Participants: types.CollectionParticipants,
				Dashboard:    types.CollectionDashboard,
			},
		},
		Schedule:           "@hourly",
		RunTimeout:         "5m",
		HTTPPort:           8080,
		RateLimitPerMinute: 120,
		LogLevel:           "info",
	}
}

// LoadConfig loads configuration from a JSON or YAML file (chosen by extension).
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Store.Backend == "" {
		result.Store.Backend = defaults.Store.Backend
	}
	if result.Store.MongoURI == "" {
		result.Store.MongoURI = defaults.Store.MongoURI
	}
	if result.Store.MongoDatabase == "" {
		result.Store.MongoDatabase = defaults.Store.MongoDatabase
	}
	if result.Store.DatabaseURL == "" {
		result.Store.DatabaseURL = defaults.Store.DatabaseURL
	}
	if result.Store.SeedFile == "" {
		result.Store.SeedFile = defaults.Store.SeedFile
	}
	if result.Store.Collections.Courses == "" {
		result.Store.Collections.Courses = defaults.Store.Collections.Courses
	}
	if result.Store.Collections.Participants == "" {
		result.Store.Collections.Participants = defaults.Store.Collections.Participants
	}
	if result.Store.Collections.Dashboard == "" {
		result.Store.Collections.Dashboard = defaults.Store.Collections.Dashboard
	}
	if result.Schedule == "" {
		result.Schedule = defaults.Schedule
	}
	if result.RunTimeout == "" {
		result.RunTimeout = defaults.RunTimeout
	}
	if result.HTTPPort == 0 {
		result.HTTPPort = defaults.HTTPPort
	}
	if result.RateLimitPerMinute == 0 {
		result.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides fields from environment variables that are set.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DASHBOARD_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("MONGODB_URI"); v != "" {
		c.Store.MongoURI = v
	}
	if v := getenv("MONGODB_DATABASE"); v != "" {
		c.Store.MongoDatabase = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := getenv("DASHBOARD_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := getenv("DASHBOARD_RUN_TIMEOUT"); v != "" {
		c.RunTimeout = v
	}
	if v := getenv("DASHBOARD_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DASHBOARD_HTTP_PORT: %v", err)
		}
		c.HTTPPort = port
	}
	if v := getenv("DASHBOARD_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DASHBOARD_RATE_LIMIT: %v", err)
		}
		c.RateLimitPerMinute = limit
		c.RateLimitDisabled = limit == 0
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	return nil
}

// Timeout returns the parsed per-run timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.RunTimeout)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid 'run_timeout' %q: %w", c.RunTimeout, err)
	}
	return d, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	d, err := c.Timeout()
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("config error: 'run_timeout' must be positive")
	}

	if c.Store.Backend == BackendMemory && c.Store.SeedFile != "" {
		if _, err := os.Stat(c.Store.SeedFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: seed file not found: %s", c.Store.SeedFile)
		}
	}

	return nil
}
