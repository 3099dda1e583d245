/*
Package config loads server settings from a config file and the environment.

SOURCES (later wins):
  1. Defaults below
  2. config.yaml in the working directory or ./config (optional)
  3. Environment variables of the same name
  4. Command-line flags applied by cmd/server

KEYS:
  PORT                   HTTP port (8080)
  DB_PATH                SQLite database path (shifts.db)
  ENV                    "production" or anything else (development)
  LOG_LEVEL              zap level name (info)
  MANAGER_ID             manager login name (admin)
  MANAGER_PASSWORD_HASH  bcrypt hash of the manager password
  RETENTION_MONTHS       months of schedule/attendance kept (18)
  PURGE_INTERVAL         how often the retention purge runs (24h)
  CORS_ORIGINS           comma-separated allowed origins
  LOGIN_RATE_PER_MIN     manager login attempts per minute per client (10)

SECURITY NOTE:
  With MANAGER_PASSWORD_HASH empty every manager request is refused.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port                int           `mapstructure:"PORT"`
	DBPath              string        `mapstructure:"DB_PATH"`
	Env                 string        `mapstructure:"ENV"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	ManagerID           string        `mapstructure:"MANAGER_ID"`
	ManagerPasswordHash string        `mapstructure:"MANAGER_PASSWORD_HASH"`
	RetentionMonths     int           `mapstructure:"RETENTION_MONTHS"`
	PurgeInterval       time.Duration `mapstructure:"PURGE_INTERVAL"`
	CORSOrigins         string        `mapstructure:"CORS_ORIGINS"`
	LoginRatePerMin     int           `mapstructure:"LOGIN_RATE_PER_MIN"`
}

var defaults = map[string]any{
	"PORT":                  8080,
	"DB_PATH":               "shifts.db",
	"ENV":                   "development",
	"LOG_LEVEL":             "info",
	"MANAGER_ID":            "admin",
	"MANAGER_PASSWORD_HASH": "",
	"RETENTION_MONTHS":      18,
	"PURGE_INTERVAL":        "24h",
	"CORS_ORIGINS":          "http://localhost:5173,http://localhost:8080",
	"LOGIN_RATE_PER_MIN":    10,
}

// Load reads configuration. An empty path searches for config.yaml in "."
// and "./config"; a missing file is not an error, a broken one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid PORT %d", c.Port)
	case c.DBPath == "":
		return errors.New("DB_PATH is required")
	case c.RetentionMonths < 1:
		return fmt.Errorf("invalid RETENTION_MONTHS %d", c.RetentionMonths)
	case c.PurgeInterval < time.Minute:
		return fmt.Errorf("PURGE_INTERVAL %v is below one minute", c.PurgeInterval)
	case c.LoginRatePerMin < 1:
		return fmt.Errorf("invalid LOGIN_RATE_PER_MIN %d", c.LoginRatePerMin)
	}
	return nil
}

// IsProduction checks if the environment is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins splits CORS_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
