// Package config loads server and CLI configuration.
//
// Values are layered, later layers winning:
//
//	defaults -> TOML file -> .env -> environment
//
// The TOML file is BUDGET_CONFIG, or ./budget.toml when unset. A missing
// file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/warp/budget-engine/budget"
)

// DefaultPayPeriodStart is the epoch every pay period is counted from.
const DefaultPayPeriodStart = "2017-07-21"

// Config holds application configuration
type Config struct {
	// PayPeriodStart anchors the biweekly calendar. Any period start works;
	// periods extend in both directions from it.
	PayPeriodStart string `toml:"pay_period_start_date"`

	// Server
	Port        string   `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`

	// Database
	DBPath string `toml:"db_path"`

	// Logging
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		PayPeriodStart: DefaultPayPeriodStart,
		Port:           "8080",
		CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		DBPath:         "./data/budget.db",
		Env:            "development",
		LogLevel:       "info",
	}
}

// Path returns the TOML config file path.
func Path() string {
	return getEnv("BUDGET_CONFIG", "budget.toml")
}

// Load reads configuration from Path(), .env and the environment.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit TOML path.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	cfg.PayPeriodStart = getEnv("PAY_PERIOD_START_DATE", cfg.PayPeriodStart)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := budget.ParseDate(c.PayPeriodStart); err != nil {
		errs = append(errs, fmt.Errorf("pay_period_start_date: %w", err))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port: is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path: is required"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Epoch returns the parsed pay period start. Call after Validate.
func (c Config) Epoch() budget.Date {
	d, err := budget.ParseDate(c.PayPeriodStart)
	if err != nil {
		return budget.MustParseDate(DefaultPayPeriodStart)
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
