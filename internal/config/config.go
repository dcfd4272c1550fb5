// Package config loads settings from the environment (and an optional .env
// file). Command flags override individual fields afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DataRoot  string `env:"FPLSTATS_DATA_ROOT"     envDefault:"data"`
	BaseURL   string `env:"FPLSTATS_API_BASE_URL"  envDefault:"https://fantasy.premierleague.com/api"`
	LoginURL  string `env:"FPLSTATS_LOGIN_URL"     envDefault:"https://users.premierleague.com/accounts/login/"`
	UserAgent string `env:"FPLSTATS_USER_AGENT"    envDefault:"fpl-league-stats/1.0"`

	HTTPTimeout      time.Duration `env:"FPLSTATS_HTTP_TIMEOUT"      envDefault:"20s"`
	RequestInterval  time.Duration `env:"FPLSTATS_REQUEST_INTERVAL"  envDefault:"500ms"`
	MaxAttempts      uint          `env:"FPLSTATS_MAX_ATTEMPTS"      envDefault:"3"`
	RetryDelay       time.Duration `env:"FPLSTATS_RETRY_DELAY"       envDefault:"4s"`
	BreakerThreshold uint32        `env:"FPLSTATS_BREAKER_THRESHOLD" envDefault:"5"`

	Email    string `env:"FPL_EMAIL"`
	Password string `env:"FPL_PASSWORD"`

	MCPAPIKey string `env:"FPLSTATS_MCP_API_KEY"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then parses the environment.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		// a missing .env is normal; anything else is worth reporting
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse(env.Options{})
}

// Parse parses configuration with explicit env options. Tests pass
// Options.Environment to avoid touching the process environment.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.DataRoot == "" {
		errs = append(errs, errors.New("data root is empty"))
	}
	if c.MaxAttempts == 0 {
		errs = append(errs, errors.New("FPLSTATS_MAX_ATTEMPTS must be at least 1"))
	}
	if c.RequestInterval < 0 || c.RetryDelay < 0 {
		errs = append(errs, errors.New("request interval and retry delay must not be negative"))
	}
	return errors.Join(errs...)
}
