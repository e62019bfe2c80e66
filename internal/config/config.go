// Package config loads service settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the service.
type Config struct {
	Environment         string        `mapstructure:"ENVIRONMENT"`
	Port                string        `mapstructure:"PORT"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DBMigrate           bool          `mapstructure:"DB_MIGRATE"`
	MigrationURL        string        `mapstructure:"MIGRATION_URL"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	AllowOrigins        string        `mapstructure:"ALLOW_ORIGINS"`
	RateRPS             float64       `mapstructure:"RATE_RPS"`
	RateBurst           int           `mapstructure:"RATE_BURST"`
	WebhookMaxAttempts  int           `mapstructure:"WEBHOOK_MAX_ATTEMPTS"`
	WebhookPollInterval time.Duration `mapstructure:"WEBHOOK_POLL_INTERVAL"`
	AutoMatchSchedule   string        `mapstructure:"AUTO_MATCH_SCHEDULE"`
	SolveTimeout        time.Duration `mapstructure:"SOLVE_TIMEOUT"`
}

var defaults = map[string]any{
	"ENVIRONMENT":           "production",
	"PORT":                  "8080",
	"DATABASE_URL":          "",
	"DB_MIGRATE":            true,
	"MIGRATION_URL":         "file://db/migrations",
	"REDIS_URL":             "",
	"ALLOW_ORIGINS":         "*",
	"RATE_RPS":              0.0,
	"RATE_BURST":            0,
	"WEBHOOK_MAX_ATTEMPTS":  5,
	"WEBHOOK_POLL_INTERVAL": 2 * time.Second,
	"AUTO_MATCH_SCHEDULE":   "",
	"SOLVE_TIMEOUT":         10 * time.Second,
}

// Load reads dir/.env when present, then overlays environment variables.
// Variables already set in the environment win over the file.
func Load(dir string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.AllowOrigins = strings.TrimSpace(cfg.AllowOrigins)
	if cfg.WebhookMaxAttempts <= 0 {
		cfg.WebhookMaxAttempts = 5
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// Development reports whether human-readable console logging is wanted.
func (c Config) Development() bool { return c.Environment == "development" }

// Origins splits ALLOW_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
