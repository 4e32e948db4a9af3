package producer

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultReadyMarker is the stdout line the producer prints once the upstream
// flight API answered successfully.
const DefaultReadyMarker = "[INFO] API responded with status: 200"

// Config describes how to launch the producer.
type Config struct {
	Binary      string        `env:"SKYGATE_PRODUCER_BINARY" envDefault:"../python_env/bin/python"`
	Script      string        `env:"SKYGATE_PRODUCER_SCRIPT" envDefault:"producer_app.py"`
	Dir         string        `env:"SKYGATE_PRODUCER_DIR"`
	Timeout     time.Duration `env:"SKYGATE_PRODUCER_TIMEOUT" envDefault:"2m"`
	GracePeriod time.Duration `env:"SKYGATE_PRODUCER_GRACE_PERIOD" envDefault:"5s"`
	ReadyMarker string        `env:"SKYGATE_PRODUCER_READY_MARKER" envDefault:"[INFO] API responded with status: 200"`
	RequireAuth bool          `env:"SKYGATE_PRODUCER_REQUIRE_AUTH" envDefault:"false"`
	Env         []string      `env:"SKYGATE_PRODUCER_ENV" envSeparator:";"`
}

// FromEnv loads the producer configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("producer: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Binary) == "" {
		return fmt.Errorf("SKYGATE_PRODUCER_BINARY: required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("SKYGATE_PRODUCER_TIMEOUT: must be > 0")
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("SKYGATE_PRODUCER_GRACE_PERIOD: must be >= 0")
	}
	if c.ReadyMarker == "" {
		return fmt.Errorf("SKYGATE_PRODUCER_READY_MARKER: required")
	}
	return nil
}

func (c Config) args() []string {
	if c.Script == "" {
		return nil
	}
	return []string{c.Script}
}
