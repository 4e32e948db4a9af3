package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what a token asserts about its bearer.
type Claims struct {
	Identifier string
	IssuedAt   time.Time
	// ExpiresAt is zero when the token never expires.
	ExpiresAt time.Time
	Issuer    string
}

// wireClaims is the JWT payload. "email" is kept as the claim name for
// compatibility with tokens already held by clients.
type wireClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single HS256 secret.
// It is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec returns a Codec for cfg. An empty secret is ErrSecretMissing.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretMissing
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token: negative ttl %s", cfg.TTL)
	}

	c := &Codec{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		popts = append(popts, jwt.WithIssuer(c.issuer))
	}
	c.parser = jwt.NewParser(popts...)

	return c, nil
}

// Issue signs a token for claims.Identifier. IssuedAt defaults to now and
// ExpiresAt to IssuedAt+TTL when a TTL is configured.
func (c *Codec) Issue(claims Claims) (string, error) {
	if claims.Identifier == "" {
		return "", ErrInvalidClaims
	}

	iat := claims.IssuedAt
	if iat.IsZero() {
		iat = c.now()
	}
	iat = iat.Truncate(time.Second)

	wc := wireClaims{
		Email: claims.Identifier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(iat),
			Issuer:   c.issuer,
		},
	}

	exp := claims.ExpiresAt
	if exp.IsZero() && c.ttl > 0 {
		exp = iat.Add(c.ttl)
	}
	if !exp.IsZero() {
		wc.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and time claims of tok and returns its claims.
func (c *Codec) Verify(tok string) (Claims, error) {
	var wc wireClaims
	parsed, err := c.parser.ParseWithClaims(tok, &wc, c.keyFunc)
	if err != nil {
		return Claims{}, classify(err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidSignature
	}
	if strings.TrimSpace(wc.Email) == "" {
		return Claims{}, ErrInvalidClaims
	}

	out := Claims{
		Identifier: wc.Email,
		Issuer:     wc.Issuer,
	}
	if wc.IssuedAt != nil {
		out.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		out.ExpiresAt = wc.ExpiresAt.Time
	}
	return out, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}
	return c.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
}
