package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string `env:"SKYGATE_HTTP_ADDR" envDefault:"0.0.0.0:3000"`
	Env      string `env:"SKYGATE_ENV" envDefault:"development"`

	LogLevel  string `env:"SKYGATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SKYGATE_LOG_FORMAT" envDefault:"json"`

	ReadHeaderTimeout time.Duration `env:"SKYGATE_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"SKYGATE_HTTP_READ_TIMEOUT" envDefault:"15s"`
	// The producer endpoints hold the request open while the script runs.
	WriteTimeout    time.Duration `env:"SKYGATE_HTTP_WRITE_TIMEOUT" envDefault:"150s"`
	IdleTimeout     time.Duration `env:"SKYGATE_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes  int           `env:"SKYGATE_HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"SKYGATE_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DatabaseURL string `env:"SKYGATE_DATABASE_URL"`
	DBMaxConns  int32  `env:"SKYGATE_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"SKYGATE_DB_MIN_CONNS" envDefault:"0"`
	DBSchema    string `env:"SKYGATE_DB_SCHEMA" envDefault:"skygate"`

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool `env:"SKYGATE_READINESS_REQUIRE_DB" envDefault:"false"`

	// "*" allows any origin without credentials.
	CORSAllowedOrigins   []string `env:"SKYGATE_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	CORSAllowCredentials bool     `env:"SKYGATE_CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	CORSMaxAgeSeconds    int      `env:"SKYGATE_CORS_MAX_AGE_SECONDS" envDefault:"600"`
}

// LoadConfig loads Config from environment variables with defaults.
//
// A .env file (or the file named by SKYGATE_ENV_FILE) is read first when
// present; variables already set in the process environment win.
func LoadConfig() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("app: parse env: %w", err)
	}
	cfg.CORSAllowedOrigins = cleanOrigins(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env parsing cannot express.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("SKYGATE_HTTP_ADDR: required")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "json", "pretty":
	default:
		return fmt.Errorf("SKYGATE_LOG_FORMAT: unsupported value %q (json|pretty)", c.LogFormat)
	}
	if c.DBMinConns < 0 || c.DBMaxConns < 0 {
		return errors.New("SKYGATE_DB_MIN_CONNS/SKYGATE_DB_MAX_CONNS: must be >= 0")
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return errors.New("SKYGATE_DB_MIN_CONNS: must not exceed SKYGATE_DB_MAX_CONNS")
	}
	if c.CORSAllowCredentials && allowsAnyOrigin(c.CORSAllowedOrigins) {
		return errors.New("SKYGATE_CORS_ALLOW_CREDENTIALS: cannot be combined with a wildcard origin")
	}
	return nil
}

func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("SKYGATE_ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("app: load %s: %w", path, err)
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
