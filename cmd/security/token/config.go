package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config configures a Codec.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type rawEnv struct {
	Secret string        `env:"SKYGATE_SECRET_KEY"`
	TTL    time.Duration `env:"SKYGATE_TOKEN_TTL" envDefault:"0s"`
	Issuer string        `env:"SKYGATE_TOKEN_ISSUER"`
}

// FromEnv loads the codec configuration. The secret is kept verbatim; a
// blank one is reported as ErrSecretMissing so startup fails before anything
// is served.
func FromEnv() (Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("token: parse env: %w", err)
	}

	// The secret is key material: it is used byte-for-byte, only an
	// all-whitespace value counts as unset.
	secret := raw.Secret
	if strings.TrimSpace(secret) == "" {
		return Config{}, fmt.Errorf("SKYGATE_SECRET_KEY: %w", ErrSecretMissing)
	}
	if raw.TTL < 0 {
		return Config{}, fmt.Errorf("SKYGATE_TOKEN_TTL: must be >= 0")
	}

	return Config{
		Secret: secret,
		TTL:    raw.TTL,
		Issuer: strings.TrimSpace(raw.Issuer),
	}, nil
}
