package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Companion CompanionConfig `yaml:"companion"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	History   HistoryConfig   `yaml:"history"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// InMemory skips Postgres entirely; data is lost on restart.
	InMemory bool `yaml:"in_memory"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
	// DevUser is the identity assumed when Tailscale is disabled.
	DevUser string `yaml:"dev_user"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type CompanionConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	StateDir string        `yaml:"state_dir"`
}

type TrackingConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

type HistoryConfig struct {
	PageSize int `yaml:"page_size"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix GYMTRACK_ and underscore-separated paths:
//
//	GYMTRACK_SERVER_HOST, GYMTRACK_SERVER_PORT,
//	GYMTRACK_DB_HOST, GYMTRACK_DB_PORT, GYMTRACK_DB_NAME,
//	GYMTRACK_DB_USER, GYMTRACK_DB_PASSWORD, GYMTRACK_DB_SSLMODE, GYMTRACK_DB_IN_MEMORY,
//	GYMTRACK_AUTH_API_KEY, GYMTRACK_AUTH_DEV_USER,
//	GYMTRACK_TAILSCALE_ENABLED, GYMTRACK_TAILSCALE_HOSTNAME,
//	GYMTRACK_COMPANION_URL, GYMTRACK_COMPANION_TIMEOUT,
//	GYMTRACK_TRACKING_TICK_INTERVAL, GYMTRACK_HISTORY_PAGE_SIZE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GYMTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GYMTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GYMTRACK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GYMTRACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GYMTRACK_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GYMTRACK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GYMTRACK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GYMTRACK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("GYMTRACK_DB_IN_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.InMemory = b
		}
	}
	if v := os.Getenv("GYMTRACK_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("GYMTRACK_AUTH_DEV_USER"); v != "" {
		cfg.Auth.DevUser = v
	}
	if v := os.Getenv("GYMTRACK_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("GYMTRACK_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("GYMTRACK_COMPANION_URL"); v != "" {
		cfg.Companion.URL = v
	}
	if v := os.Getenv("GYMTRACK_COMPANION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Companion.Timeout = d
		}
	}
	if v := os.Getenv("GYMTRACK_TRACKING_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Tracking.TickInterval = d
		}
	}
	if v := os.Getenv("GYMTRACK_HISTORY_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.PageSize = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "gymtrack"
	}
	if cfg.Tailscale.StateDir == "" {
		cfg.Tailscale.StateDir = "data/tsnet"
	}
	if cfg.Companion.Timeout == 0 {
		cfg.Companion.Timeout = 5 * time.Second
	}
	if cfg.Companion.StateDir == "" {
		cfg.Companion.StateDir = "data/companion"
	}
	if cfg.Tracking.TickInterval == 0 {
		cfg.Tracking.TickInterval = time.Second
	}
	if cfg.History.PageSize == 0 {
		cfg.History.PageSize = 50
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if !c.Database.InMemory {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tracking.TickInterval < 0 {
		return fmt.Errorf("tracking.tick_interval must be positive")
	}
	if c.History.PageSize < 0 || c.History.PageSize > 500 {
		return fmt.Errorf("history.page_size must be between 1 and 500")
	}
	return nil
}
