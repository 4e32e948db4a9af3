package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the store needs.
// pgxmock.PgxPoolIface satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store over PostgreSQL.
//
// The pool is owned by the caller; this store never closes it.
// Uniqueness is enforced by the uq_identities_identifier constraint.
type PostgresStore struct {
	db     Querier
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// DefaultSchema is the schema used when WithSchema is not given.
const DefaultSchema = "skygate"

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store.
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db Querier, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{db: db, schema: DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "identities"}.Sanitize()
}

// EnsureSchema creates the schema and table if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const op = "identity.EnsureSchema"

	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.table() + ` (
		     id          text        PRIMARY KEY,
		     identifier  text        NOT NULL,
		     digest      text        NOT NULL,
		     created_at  timestamptz NOT NULL DEFAULT now(),
		     CONSTRAINT uq_identities_identifier UNIQUE (identifier)
		   )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return unavailable(op, err)
		}
	}
	return nil
}

// FindByIdentifier looks up a record by exact identifier.
func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (Record, error) {
	const op = "identity.FindByIdentifier"

	var rec Record
	err := s.db.QueryRow(ctx,
		`SELECT id, identifier, digest, created_at
		   FROM `+s.table()+`
		  WHERE identifier = $1`,
		identifier,
	).Scan(&rec.ID, &rec.Identifier, &rec.Digest, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, NotFoundError{Op: op, Resource: "identity"}
		}
		return Record{}, unavailable(op, err)
	}
	return rec, nil
}

// Insert writes rec. A duplicate identifier yields ConflictError.
func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	const op = "identity.Insert"

	if err := rec.validate(op); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, identifier, digest, created_at)
		 VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Identifier, rec.Digest, rec.CreatedAt,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return unavailable(op, err)
	}
	return nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case c == "uq_identities_identifier", strings.Contains(c, "identifier"):
		return "identifier", true
	case strings.Contains(c, "pkey"):
		return "id", true
	default:
		return "unique", true
	}
}
