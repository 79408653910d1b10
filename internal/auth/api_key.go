package auth

import (
	"context"

	"github.com/google/uuid"

	"tracehub/internal/utils"
)

// APIKeyRecord is the view of a project API key needed at request time.
type APIKeyRecord struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
	Revoked   bool
}

// APIKeyStore resolves plaintext API keys into stored records.
type APIKeyStore interface {
	Lookup(ctx context.Context, plaintextKey string) (*APIKeyRecord, error)
}

// InMemoryAPIKeyStore is a store useful for local testing without a database.
type InMemoryAPIKeyStore struct {
	// map of sha256(plaintext key) -> record
	keys map[string]*APIKeyRecord
}

func NewInMemoryAPIKeyStore() *InMemoryAPIKeyStore {
	return &InMemoryAPIKeyStore{
		keys: make(map[string]*APIKeyRecord),
	}
}

// Add registers a plaintext key with its record.
func (s *InMemoryAPIKeyStore) Add(plaintextKey string, rec *APIKeyRecord) {
	s.keys[utils.HashString(plaintextKey)] = rec
}

func (s *InMemoryAPIKeyStore) Lookup(ctx context.Context, plaintextKey string) (*APIKeyRecord, error) {
	rec, ok := s.keys[utils.HashString(plaintextKey)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return rec, nil
}
