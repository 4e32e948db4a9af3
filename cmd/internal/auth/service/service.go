package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skygate/cmd/identity"
	"skygate/cmd/internal/metrics"
	"skygate/cmd/security/password"
	"skygate/cmd/security/token"
)

// TokenCodec issues and verifies bearer tokens.
type TokenCodec interface {
	Issue(claims token.Claims) (string, error)
	Verify(tok string) (token.Claims, error)
}

// Service orchestrates Register, Login and Authorize.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store   identity.Store
	hasher  password.Hasher
	tokens  TokenCodec
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token string
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics enables operation counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. All three collaborators are required.
func New(store identity.Store, hasher password.Hasher, tokens TokenCodec, opts ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, fmt.Errorf("%w: nil credential store", ErrConfiguration)
	case hasher == nil:
		return nil, fmt.Errorf("%w: nil hasher", ErrConfiguration)
	case tokens == nil:
		return nil, fmt.Errorf("%w: nil token codec", ErrConfiguration)
	}

	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		log:    slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a credential record for identifier.
//
// The duplicate check runs before the password policy, so a taken identifier
// is reported even when the password is also weak.
func (s *Service) Register(ctx context.Context, identifier, plaintext string) (err error) {
	defer func() { s.record("register", err) }()

	if identifier == "" {
		return ErrInvalidIdentifier
	}

	_, err = s.store.FindByIdentifier(ctx, identifier)
	switch {
	case err == nil:
		return ErrDuplicateIdentifier
	case !identity.IsNotFound(err):
		s.log.Error("auth.register.lookup.fail", "err", err)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !password.IsValid(plaintext) {
		return ErrWeakCredential
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.log.Error("auth.register.hash.fail", "err", err)
		return fmt.Errorf("service: hash credential: %w", err)
	}

	rec, err := identity.NewRecord(identifier, digest, s.now())
	if err != nil {
		return fmt.Errorf("service: build record: %w", err)
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		if identity.IsConflict(err) {
			return ErrDuplicateIdentifier
		}
		s.log.Error("auth.register.insert.fail", "err", err)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.log.Info("auth.register.ok", "id", rec.ID)
	return nil
}

// Login verifies the credential and issues a token bound to identifier.
func (s *Service) Login(ctx context.Context, identifier, plaintext string) (res LoginResult, err error) {
	defer func() { s.record("login", err) }()

	rec, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if identity.IsNotFound(err) {
			return LoginResult{}, ErrUnknownIdentifier
		}
		s.log.Error("auth.login.lookup.fail", "err", err)
		return LoginResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !s.hasher.Verify(plaintext, rec.Digest) {
		return LoginResult{}, ErrWrongCredential
	}

	tok, err := s.tokens.Issue(token.Claims{Identifier: rec.Identifier})
	if err != nil {
		s.log.Error("auth.login.issue.fail", "err", err, "id", rec.ID)
		return LoginResult{}, fmt.Errorf("service: issue token: %w", err)
	}

	s.log.Info("auth.login.ok", "id", rec.ID, "token_fp", token.Fingerprint(tok))
	return LoginResult{Token: tok}, nil
}

// Authorize verifies a presented bearer token. Every codec failure is
// reported as ErrInvalidToken.
func (s *Service) Authorize(ctx context.Context, presented string) (claims token.Claims, err error) {
	defer func() { s.record("authorize", err) }()

	presented = strings.TrimSpace(presented)
	if presented == "" {
		return token.Claims{}, ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return token.Claims{}, err
	}

	claims, err = s.tokens.Verify(presented)
	if err != nil {
		s.log.Debug("auth.authorize.reject", "reason", err.Error(), "token_fp", token.Fingerprint(presented))
		return token.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) record(op string, err error) {
	switch {
	case err == nil:
		s.metrics.RecordAuth(op, metrics.ResultSuccess)
	case IsDomainError(err):
		s.metrics.RecordAuth(op, metrics.ResultFailure)
	default:
		s.metrics.RecordAuth(op, metrics.ResultError)
	}
}
