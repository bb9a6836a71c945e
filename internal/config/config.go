// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mmynk/settleup/internal/currency"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Name            string `envconfig:"APP_NAME" default:"SettleUp"`
		Port            int    `envconfig:"PORT" default:"8080"`
		Locale          string `envconfig:"LOCALE" default:"en"`
		DefaultCurrency string `envconfig:"DEFAULT_CURRENCY" default:"EUR"`
		LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	}

	Storage struct {
		Driver      string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
		DBPath      string `envconfig:"DB_PATH" default:"./data/settleup.db"`
		DatabaseURL string `envconfig:"DATABASE_URL"`
	}

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Auth struct {
		// JWTSecret verifies tokens from the auth provider. Empty disables auth.
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Idempotency struct {
		TTL         time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
		LockTimeout time.Duration `envconfig:"IDEMPOTENCY_LOCK_TIMEOUT" default:"30s"`
	}

	Server struct {
		ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
		WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the .env file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	cur, err := currency.Lookup(c.App.DefaultCurrency)
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_CURRENCY: %w", err)
	}
	c.App.DefaultCurrency = cur.Code

	if c.Idempotency.TTL <= 0 || c.Idempotency.LockTimeout <= 0 {
		return errors.New("idempotency TTL and lock timeout must be positive")
	}
	return nil
}
