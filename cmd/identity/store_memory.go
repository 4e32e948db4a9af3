package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used when no database is configured.
// Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Record)}
}

// FindByIdentifier returns the record for identifier or a NotFoundError.
func (s *MemoryStore) FindByIdentifier(ctx context.Context, identifier string) (Record, error) {
	const op = "identity.FindByIdentifier"

	if err := ctx.Err(); err != nil {
		return Record{}, unavailable(op, err)
	}

	s.mu.RLock()
	rec, ok := s.byID[identifier]
	s.mu.RUnlock()

	if !ok {
		return Record{}, NotFoundError{Op: op, Resource: "identity"}
	}
	return rec, nil
}

// Insert stores rec. The existence check and the write happen under one lock.
func (s *MemoryStore) Insert(ctx context.Context, rec Record) error {
	const op = "identity.Insert"

	if err := ctx.Err(); err != nil {
		return unavailable(op, err)
	}
	if err := rec.validate(op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.Identifier]; exists {
		return ConflictError{Op: op, Field: "identifier"}
	}
	s.byID[rec.Identifier] = rec
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
