package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"skygate/cmd/internal/auth/service"
	"skygate/cmd/internal/producer"
	"skygate/cmd/security/password"
	"skygate/cmd/security/token"
)

// Authenticator is the auth core consumed by the handlers.
type Authenticator interface {
	Register(ctx context.Context, identifier, plaintext string) error
	Login(ctx context.Context, identifier, plaintext string) (service.LoginResult, error)
	Authorize(ctx context.Context, presented string) (token.Claims, error)
}

// ProducerRunner starts the producer for the dashboard endpoints.
type ProducerRunner interface {
	Run(ctx context.Context) (producer.Result, error)
	RequireAuth() bool
}

// Handler wires HTTP auth endpoints to the auth service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	auth     Authenticator
	producer ProducerRunner
	stream   http.Handler
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithProducer enables /dashboard and /start-producer.
func WithProducer(p ProducerRunner) HandlerOption {
	return func(h *Handler) {
		if h == nil || p == nil {
			return
		}
		h.producer = p
	}
}

// WithProducerStream mounts a streaming handler at /producer/stream behind auth.
func WithProducerStream(stream http.Handler) HandlerOption {
	return func(h *Handler) {
		if h == nil || stream == nil {
			return
		}
		h.stream = stream
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, auth Authenticator, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if auth == nil {
		return nil, errors.New("authapi: nil authenticator")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	h := &Handler{log: log, cfg: cfg, auth: auth}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.Handle("/me", h.RequireAuth(http.HandlerFunc(h.handleMe)))

	if h.producer != nil {
		mux.Handle("/dashboard", h.RequireAuth(http.HandlerFunc(h.handleDashboard)))

		start := http.Handler(http.HandlerFunc(h.handleStartProducer))
		if h.producer.RequireAuth() {
			start = h.RequireAuth(start)
		}
		mux.Handle("/start-producer", start)
	}
	if h.stream != nil {
		mux.Handle("/producer/stream", h.RequireAuth(h.stream))
	}
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", msgInvalidBody)
		return
	}

	err := h.auth.Register(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, msgRegistered)
	case errors.Is(err, service.ErrDuplicateIdentifier):
		writeError(w, http.StatusBadRequest, "email_exists", msgEmailExists)
	case errors.Is(err, service.ErrWeakCredential):
		writeError(w, http.StatusBadRequest, "weak_password", password.PolicyMessage)
	case errors.Is(err, service.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, "invalid_request", msgEmailRequired)
	default:
		h.writeInfraError(w, "auth.register.fail", err)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", msgInvalidBody)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, Message: msgLoginOK})
	case errors.Is(err, service.ErrUnknownIdentifier), errors.Is(err, service.ErrWrongCredential):
		h.writeLoginFailure(w, err)
	default:
		h.writeInfraError(w, "auth.login.fail", err)
	}
}

func (h *Handler) writeLoginFailure(w http.ResponseWriter, err error) {
	if h.cfg.GenericLoginErrors {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", msgInvalidCreds)
		return
	}
	if errors.Is(err, service.ErrUnknownIdentifier) {
		writeError(w, http.StatusUnauthorized, "invalid_email", msgInvalidEmail)
		return
	}
	writeError(w, http.StatusUnauthorized, "wrong_password", msgWrongPassword)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	resp := meResponse{Email: claims.Identifier}
	if !claims.IssuedAt.IsZero() {
		iat := claims.IssuedAt.UTC()
		resp.IssuedAt = &iat
	}
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt.UTC()
		resp.ExpiresAt = &exp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeInfraError(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, service.ErrStoreUnavailable) {
		h.log.Error(event, "err", err)
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", msgUnavailable)
		return
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody is listening for the body.
		return
	}
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", msgInternal)
}

// ---- auth gate ----

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(token.Claims)
	return c, ok
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified claims in the request context.
//
// Both a missing and an invalid token yield 403 with distinct messages.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.auth.Authorize(r.Context(), bearerToken(r))
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		case errors.Is(err, service.ErrMissingToken):
			writeError(w, http.StatusForbidden, "token_required", msgTokenRequired)
		default:
			writeError(w, http.StatusForbidden, "invalid_token", msgTokenInvalid)
		}
	})
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
