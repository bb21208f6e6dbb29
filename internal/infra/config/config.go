// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Log       LogConfig               `yaml:"log"`
	Playlist  PlaylistConfig          `yaml:"playlist"`
	Scheduler SchedulerConfig         `yaml:"scheduler"`
	Filters   map[string]FilterConfig `yaml:"filters"`
	Resolvers []ResolverConfig        `yaml:"resolvers" validate:"required,min=1,dive"`
}

// ServerConfig represents the admin HTTP server configuration.
type ServerConfig struct {
	Addr  string `yaml:"addr" default:":8097"`
	Token string `yaml:"token"` // Bearer token for mutating endpoints; empty disables auth
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Output string `yaml:"output" default:"stdout"`
	File   string `yaml:"file"`
}

// PlaylistConfig represents the playlist source configuration.
type PlaylistConfig struct {
	Path         string `yaml:"path" validate:"required"`
	Watch        bool   `yaml:"watch" default:"true"`
	FallbackPath string `yaml:"fallback_path"` // loaded when the failure threshold is hit; empty disables fallback
}

// SchedulerConfig represents scheduler configuration.
type SchedulerConfig struct {
	Mode             string `yaml:"mode" default:"ordered" validate:"oneof=ordered shuffle random"`
	Loop             bool   `yaml:"loop" default:"true"`
	PrefetchDepth    int    `yaml:"prefetch_depth" default:"2" validate:"gte=0"`
	MaxFail          int    `yaml:"max_fail" default:"3" validate:"gte=1"`
	ResolveTimeoutMs int    `yaml:"resolve_timeout_ms" default:"10000" validate:"gte=1"`
	CooldownMs       int    `yaml:"cooldown_ms" default:"1000" validate:"gte=1"`
}

// ResolveTimeout returns the per-attempt resolution timeout.
func (c SchedulerConfig) ResolveTimeout() time.Duration {
	return time.Duration(c.ResolveTimeoutMs) * time.Millisecond
}

// Cooldown returns the failure cooldown window.
func (c SchedulerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// FilterConfig represents a candidate filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// ResolverConfig represents a single resolver gateway configuration.
type ResolverConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Schemes  []string       `yaml:"schemes" validate:"required,min=1"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("ROTOR_ADMIN_TOKEN"); v != "" {
		c.Server.Token = v
	}
	for i := range c.Resolvers {
		if c.Resolvers[i].Type != "spotify" {
			continue
		}
		if c.Resolvers[i].Settings == nil {
			c.Resolvers[i].Settings = map[string]any{}
		}
		if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
			c.Resolvers[i].Settings["client_id"] = v
		}
		if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
			c.Resolvers[i].Settings["client_secret"] = v
		}
		if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
			c.Resolvers[i].Settings["refresh_token"] = v
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]string)
	for _, rc := range c.Resolvers {
		for _, scheme := range rc.Schemes {
			if prev, dup := seen[scheme]; dup {
				return errors.Newf("scheme %q claimed by both %q and %q resolvers", scheme, prev, rc.Type)
			}
			seen[scheme] = rc.Type
		}
	}

	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(name string) bool {
	if f, ok := c.Filters[name]; ok {
		return f.Enabled
	}
	return false
}

// FilterSettings returns the settings map for a filter.
func (c *Config) FilterSettings(name string) map[string]any {
	if f, ok := c.Filters[name]; ok {
		return f.Settings
	}
	return nil
}
