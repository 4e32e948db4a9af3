package app

import (
	"errors"
	"fmt"

	"skygate/cmd/internal/auth/service"
	"skygate/cmd/security/token"
)

// loadTokenConfig enforces the signing-secret policy at startup.
//
// A missing secret is a configuration error: the process must not bind a
// listener that would issue or accept unsigned tokens.
func loadTokenConfig() (token.Config, error) {
	cfg, err := token.FromEnv()
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, token.ErrSecretMissing) {
		return token.Config{}, fmt.Errorf("%w: SKYGATE_SECRET_KEY is not set", service.ErrConfiguration)
	}
	return token.Config{}, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
}
