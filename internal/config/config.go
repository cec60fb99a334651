// Package config reads kidbank settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"kidbank.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// MissedSweepInterval is how often overdue chores are marked missed.
	// Zero disables the sweeper.
	MissedSweepInterval time.Duration `env:"MISSED_SWEEP_INTERVAL" envDefault:"5m"`
	NotifyQueueSize     int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `env:"STRIPE_CURRENCY" envDefault:"usd"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `env:"VAPID_SUBSCRIBER" envDefault:"mailto:noreply@kidbank.app"`

	PostmarkToken string `env:"POSTMARK_TOKEN"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"noreply@kidbank.app"`

	RedisURL     string        `env:"REDIS_URL"`
	DashboardTTL time.Duration `env:"DASHBOARD_TTL" envDefault:"5m"`

	RateLimit       int           `env:"RATE_LIMIT" envDefault:"120"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

const prefix = "KIDBANK_"

// Load reads files (default ".env") into the environment, skipping any that
// do not exist, then parses KIDBANK_* variables.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads KIDBANK_* variables from the process environment.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MissedSweepInterval < 0 {
		return errors.New("missed sweep interval must not be negative")
	}
	if c.NotifyQueueSize <= 0 {
		return errors.New("notify queue size must be positive")
	}
	if (c.StripeSecretKey == "") != (c.StripeWebhookSecret == "") {
		return errors.New("stripe secret key and webhook secret must be set together")
	}
	return nil
}

func (c *Config) StripeEnabled() bool { return c.StripeSecretKey != "" }

func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
