// Package config loads portal configuration from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the portal version, overridable at build time via
// -ldflags "-X .../internal/config.Version=...". Used for display and the
// health payload only.
var Version = "0.1.0"

// Config is the root configuration.
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Supabase    SupabaseConfig `yaml:"supabase"`
	Auth        AuthConfig     `yaml:"auth"`
	Log         LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RatePerSecond  int      `yaml:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst"`
}

// SupabaseConfig configures the hosted backend.
type SupabaseConfig struct {
	URL      string        `yaml:"url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Realtime bool          `yaml:"realtime"`
}

// AuthConfig configures session authentication.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from path, applies environment overrides, and
// validates the result. A missing file is not an error; defaults plus
// environment variables apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to env overrides.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			RatePerSecond: 50,
			RateBurst:     100,
		},
		Supabase: SupabaseConfig{
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORTAL_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		c.Supabase.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Supabase.URL == "" {
		return fmt.Errorf("config: supabase url is required (SUPABASE_URL)")
	}
	if c.Supabase.APIKey == "" {
		return fmt.Errorf("config: supabase api key is required (SUPABASE_ANON_KEY)")
	}
	return nil
}
