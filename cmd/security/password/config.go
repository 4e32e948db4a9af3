package password

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a supported hashing algorithm.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// DefaultBcryptCost matches the work factor of digests already stored by the previous backend.
const DefaultBcryptCost = 10

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Config is the single configuration surface for this package.
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
	Params     Argon2idParams
}

// DefaultConfig returns bcrypt at the legacy cost, with conservative Argon2id parameters
// ready for deployments that opt in.
func DefaultConfig() Config {
	// Clamp to [1..4] to keep resource usage predictable in containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Algorithm:  AlgorithmBcrypt,
		BcryptCost: DefaultBcryptCost,
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

type rawEnv struct {
	Algorithm   string `env:"SKYGATE_PASSWORD_ALGORITHM"`
	BcryptCost  int    `env:"SKYGATE_BCRYPT_COST"`
	MemoryKiB   uint32 `env:"SKYGATE_ARGON2_MEMORY_KIB"`
	Iterations  uint32 `env:"SKYGATE_ARGON2_ITERATIONS"`
	Parallelism uint32 `env:"SKYGATE_ARGON2_PARALLELISM"`
	SaltLength  uint32 `env:"SKYGATE_ARGON2_SALT_LEN"`
	KeyLength   uint32 `env:"SKYGATE_ARGON2_KEY_LEN"`
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Env surface:
// - SKYGATE_PASSWORD_ALGORITHM (bcrypt|argon2id)
// - SKYGATE_BCRYPT_COST
// - SKYGATE_ARGON2_MEMORY_KIB
// - SKYGATE_ARGON2_ITERATIONS
// - SKYGATE_ARGON2_PARALLELISM
// - SKYGATE_ARGON2_SALT_LEN
// - SKYGATE_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	// Unset variables leave the defaults in place.
	raw := rawEnv{
		Algorithm:   string(cfg.Algorithm),
		BcryptCost:  cfg.BcryptCost,
		MemoryKiB:   cfg.Params.MemoryKiB,
		Iterations:  cfg.Params.Iterations,
		Parallelism: uint32(cfg.Params.Parallelism),
		SaltLength:  cfg.Params.SaltLength,
		KeyLength:   cfg.Params.KeyLength,
	}
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("password: parse env: %w", err)
	}

	alg, err := parseAlgorithm(raw.Algorithm)
	if err != nil {
		return Config{}, fmt.Errorf("SKYGATE_PASSWORD_ALGORITHM: %w", err)
	}
	cfg.Algorithm = alg

	if raw.BcryptCost < bcrypt.MinCost || raw.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("SKYGATE_BCRYPT_COST: out of range [%d..%d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	cfg.BcryptCost = raw.BcryptCost

	if err := inRange(raw.MemoryKiB, 8*1024, 1024*1024); err != nil { // 8 MiB .. 1 GiB
		return Config{}, fmt.Errorf("SKYGATE_ARGON2_MEMORY_KIB: %w", err)
	}
	cfg.Params.MemoryKiB = raw.MemoryKiB

	if err := inRange(raw.Iterations, 1, 20); err != nil {
		return Config{}, fmt.Errorf("SKYGATE_ARGON2_ITERATIONS: %w", err)
	}
	cfg.Params.Iterations = raw.Iterations

	if err := inRange(raw.Parallelism, 1, 64); err != nil {
		return Config{}, fmt.Errorf("SKYGATE_ARGON2_PARALLELISM: %w", err)
	}
	p, err := u32ToU8(raw.Parallelism)
	if err != nil {
		return Config{}, fmt.Errorf("SKYGATE_ARGON2_PARALLELISM: %w", err)
	}
	cfg.Params.Parallelism = p

	if err := inRange(raw.SaltLength, 8, 64); err != nil {
		return Config{}, fmt.Errorf("SKYGATE_ARGON2_SALT_LEN: %w", err)
	}
	cfg.Params.SaltLength = raw.SaltLength

	if err := inRange(raw.KeyLength, 16, 64); err != nil {
		return Config{}, fmt.Errorf("SKYGATE_ARGON2_KEY_LEN: %w", err)
	}
	cfg.Params.KeyLength = raw.KeyLength

	return cfg, nil
}

func parseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmBcrypt, "":
		return AlgorithmBcrypt, nil
	case AlgorithmArgon2id:
		return AlgorithmArgon2id, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

func inRange(u, minVal, maxVal uint32) error {
	if u < minVal || u > maxVal {
		return fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}
