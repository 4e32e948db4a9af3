package identity

import (
	"context"
	"strings"
	"time"

	"skygate/cmd/identity/ids"
)

// Record is a stored credential. Digest is opaque to this package.
type Record struct {
	ID         string
	Identifier string
	Digest     string
	CreatedAt  time.Time
}

// NewRecord assigns a fresh ULID and creation time to a credential.
func NewRecord(identifier, digest string, now time.Time) (Record, error) {
	const op = "identity.NewRecord"

	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Record{}, OpError{Op: op, Kind: ErrUnavailable, Msg: "id generation", Err: err}
	}
	return Record{
		ID:         id,
		Identifier: identifier,
		Digest:     digest,
		CreatedAt:  now,
	}, nil
}

func (r Record) validate(op string) error {
	switch {
	case r.Identifier == "":
		return invalid(op, "identifier is required")
	case strings.TrimSpace(r.Digest) == "":
		return invalid(op, "digest is required")
	case !ids.Valid(r.ID):
		return invalid(op, "id must be a ULID")
	}
	return nil
}

// Store is the credential persistence boundary.
//
// Contract:
//   - FindByIdentifier returns an error matching ErrNotFound when absent.
//   - Insert returns a ConflictError when the identifier already exists,
//     even under concurrent inserts of the same identifier.
//   - Any other failure matches ErrUnavailable.
type Store interface {
	FindByIdentifier(ctx context.Context, identifier string) (Record, error)
	Insert(ctx context.Context, rec Record) error
}
