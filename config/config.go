// Package config loads the server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/factory"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabasePath      = "capacity.db"
	DefaultPort              = 8080
	DefaultHorizonDays       = 90
	DefaultSchedulerInterval = time.Hour
	DefaultCalendarID        = "default"
)

type Config struct {
	DatabasePath      string        `yaml:"database_path"`
	Port              int           `yaml:"port"`
	HorizonDays       int           `yaml:"horizon_days"`
	SchedulerInterval time.Duration `yaml:"scheduler_interval"`
	// nil means enabled
	SchedulerEnabled *bool `yaml:"scheduler_enabled,omitempty"`

	// Seeded on startup when the store has no calendar with this ID.
	DefaultCalendar *factory.CalendarJSON `yaml:"default_calendar,omitempty"`
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults for missing values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = DefaultHorizonDays
	}
	if c.SchedulerInterval == 0 {
		c.SchedulerInterval = DefaultSchedulerInterval
	}
	if c.DefaultCalendar == nil {
		c.DefaultCalendar = &factory.CalendarJSON{
			ID:   DefaultCalendarID,
			Name: "Default",
			Weekly: map[string]string{
				"monday": "8", "tuesday": "8", "wednesday": "8", "thursday": "8", "friday": "8",
			},
		}
	}

	// Expand ~ in database path
	if strings.HasPrefix(c.DatabasePath, "~/") {
		home, _ := os.UserHomeDir()
		c.DatabasePath = filepath.Join(home, c.DatabasePath[2:])
	}
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s - %s", e.Field, e.Message)
}

// Validate checks the configuration for common issues
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return &ValidationError{Field: "port", Message: "port must be between 1 and 65535"}
	}
	if c.HorizonDays < 0 {
		return &ValidationError{Field: "horizon_days", Message: "horizon must not be negative"}
	}
	if c.SchedulerInterval < 0 {
		return &ValidationError{Field: "scheduler_interval", Message: "interval must not be negative"}
	}
	if c.DefaultCalendar != nil {
		if _, err := c.Calendar(); err != nil {
			return &ValidationError{Field: "default_calendar", Message: err.Error()}
		}
	}
	return nil
}

// IsSchedulerEnabled reports whether the horizon scheduler should run.
func (c *Config) IsSchedulerEnabled() bool {
	return c.SchedulerEnabled == nil || *c.SchedulerEnabled
}

// Calendar builds the default calendar.
func (c *Config) Calendar() (*calendar.Calendar, error) {
	return factory.New().CalendarFromJSON(*c.DefaultCalendar)
}
