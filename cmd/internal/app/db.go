package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pinger is the readiness probe surface of *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// NewDBPool builds a pgxpool with sane defaults and validates connectivity.
// The identities schema is created by identity.PostgresStore.EnsureSchema.
func NewDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 {
		pcfg.MinConns = cfg.DBMinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PingDB checks if the database answers within timeout.
func PingDB(parent context.Context, db pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	return db.Ping(ctx)
}
