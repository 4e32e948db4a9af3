// Package app wires the skygate server runtime: config, logging, storage,
// the auth service, the producer relay and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"skygate/cmd/identity"
	authapi "skygate/cmd/internal/auth/api"
	"skygate/cmd/internal/auth/service"
	"skygate/cmd/internal/metrics"
	"skygate/cmd/internal/producer"
	"skygate/cmd/security/password"
	"skygate/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the skygate server runtime.
type App struct {
	cfg Config
	log Logger

	pool    *pgxpool.Pool
	metrics *metrics.Metrics
	auth    *authapi.Handler

	handler http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	tokCfg, err := loadTokenConfig()
	if err != nil {
		return nil, err
	}
	codec, err := token.NewCodec(tokCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}
	hasher, err := password.NewHasher(pwCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}

	apiCfg, err := authapi.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}
	prodCfg, err := producer.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}

	m := metrics.NewMetrics(prometheus.NewRegistry())

	store, pool, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	parts := components{
		store:   store,
		hasher:  hasher,
		codec:   codec,
		apiCfg:  apiCfg,
		prodCfg: prodCfg,
		metrics: m,
	}
	if pool != nil {
		parts.db = pool
	}

	a, err := assemble(cfg, log, parts)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}
	a.pool = pool

	log.Info("app.ready",
		"env", cfg.Env,
		"db_enabled", pool != nil,
		"password_algorithm", pwCfg.Algorithm,
		"token_ttl", tokCfg.TTL,
		"producer_require_auth", prodCfg.RequireAuth,
	)
	return a, nil
}

// components are the already constructed dependencies assemble wires together.
// db is nil in in-memory mode.
type components struct {
	store   identity.Store
	db      pinger
	hasher  password.Hasher
	codec   *token.Codec
	apiCfg  authapi.Config
	prodCfg producer.Config
	metrics *metrics.Metrics
}

// assemble builds the service graph and HTTP handler chain.
func assemble(cfg Config, log Logger, c components) (*App, error) {
	m := c.metrics
	svc, err := service.New(c.store, c.hasher, c.codec, service.WithLogger(log), service.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	runner, err := producer.NewRunner(c.prodCfg, log, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}
	stream := producer.NewStreamHandler(runner, log, cfg.CORSAllowedOrigins)

	auth, err := authapi.NewHandler(log, svc, c.apiCfg,
		authapi.WithProducer(runner),
		authapi.WithProducerStream(stream),
	)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: m, auth: auth}

	mux := http.NewServeMux()
	registerHTTP(mux, routes{log: log, cfg: cfg, db: c.db, metrics: m, auth: auth})

	// Outermost first: headers are set even on CORS rejections.
	var h http.Handler = mux
	h = WithMetrics(h, m)
	h = WithRequestLogging(h, log)
	h = WithCORS(h, cfg, log)
	h = WithSecurityHeaders(h)
	a.handler = h

	return a, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 150*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.pool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.Close()
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory store.
func newStore(ctx context.Context, cfg Config, log Logger) (identity.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return identity.NewMemoryStore(), nil, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", service.ErrStoreUnavailable, err)
	}

	st, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema)
	return st, pool, nil
}
