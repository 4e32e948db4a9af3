package password

// Hasher is a one-way, salted credential transform.
//
// Hash never fails for well-formed input; an error means the system entropy
// source failed. Verify returns false for mismatches and for malformed digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// formatHasher is a Hasher that can recognize its own digest format.
type formatHasher interface {
	Hasher
	Handles(digest string) bool
}

// MultiHasher hashes with one algorithm and verifies digests of every supported one,
// so stores holding both bcrypt and Argon2id digests keep working after a switch.
type MultiHasher struct {
	primary formatHasher
	all     []formatHasher
}

// NewHasher builds the MultiHasher for cfg.
func NewHasher(cfg Config) (*MultiHasher, error) {
	bc := NewBcryptHasher(cfg.BcryptCost)
	a2 := NewArgon2idHasher(cfg.Params)

	m := &MultiHasher{all: []formatHasher{bc, a2}}
	switch cfg.Algorithm {
	case AlgorithmBcrypt, "":
		m.primary = bc
	case AlgorithmArgon2id:
		m.primary = a2
	default:
		return nil, ErrUnsupportedAlgorithm
	}
	return m, nil
}

// Hash hashes plaintext with the configured algorithm.
func (m *MultiHasher) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

// Verify dispatches on the digest format.
func (m *MultiHasher) Verify(plaintext, digest string) bool {
	for _, h := range m.all {
		if h.Handles(digest) {
			return h.Verify(plaintext, digest)
		}
	}
	return false
}

