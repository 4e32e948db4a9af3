package authapi

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config controls auth API behavior.
type Config struct {
	MaxBodyBytes int64 `env:"SKYGATE_AUTH_MAX_BODY_BYTES" envDefault:"1048576"`

	// GenericLoginErrors reports unknown identifiers and wrong passwords with
	// the same 401 body.
	GenericLoginErrors bool `env:"SKYGATE_AUTH_GENERIC_LOGIN_ERRORS" envDefault:"false"`
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: 1 << 20}
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("authapi: parse env: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg, nil
}
