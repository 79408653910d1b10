package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tracehub/internal/auth"
	"tracehub/internal/models"
	"tracehub/internal/utils"
)

const apiKeyPrefix = "th-"

// APIKeyRepository handles API key database operations with caching.
// It implements auth.APIKeyStore for the ingest middleware.
type APIKeyRepository struct {
	db    *DB
	cache *LRUCache
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{
		db:    db,
		cache: db.GetAPIKeyCache(),
	}
}

// Create mints a new API key for a project. Returns the stored record and
// the plaintext key, which is never persisted and cannot be recovered later.
func (r *APIKeyRepository) Create(ctx context.Context, projectID uuid.UUID, name string) (*models.APIKey, string, error) {
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}
	plaintext := apiKeyPrefix + hex.EncodeToString(secret)

	secretHash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash API key: %w", err)
	}

	key := &models.APIKey{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Name:         name,
		LookupDigest: utils.HashString(plaintext),
		SecretHash:   string(secretHash),
	}

	query := `
		INSERT INTO api_keys (id, project_id, name, lookup_digest, secret_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err = r.db.conn.QueryRowxContext(
		ctx, query,
		key.ID, key.ProjectID, key.Name, key.LookupDigest, key.SecretHash,
	).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create API key: %w", err)
	}

	return key, plaintext, nil
}

// GetByID retrieves an API key scoped to a project
func (r *APIKeyRepository) GetByID(ctx context.Context, projectID, id uuid.UUID) (*models.APIKey, error) {
	query := `
		SELECT id, project_id, name, lookup_digest, secret_hash, created_at, revoked_at
		FROM api_keys
		WHERE project_id = $1 AND id = $2
	`

	var key models.APIKey
	err := r.db.conn.GetContext(ctx, &key, query, projectID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	return &key, nil
}

// ListByProject retrieves all API keys for a project
func (r *APIKeyRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.APIKey, error) {
	query := `
		SELECT id, project_id, name, lookup_digest, secret_hash, created_at, revoked_at
		FROM api_keys
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	var keys []*models.APIKey
	if err := r.db.conn.SelectContext(ctx, &keys, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}

	return keys, nil
}

// Revoke marks an API key as revoked and drops it from the cache.
func (r *APIKeyRepository) Revoke(ctx context.Context, projectID, id uuid.UUID) error {
	key, err := r.GetByID(ctx, projectID, id)
	if err != nil {
		return err
	}

	query := `
		UPDATE api_keys SET revoked_at = CURRENT_TIMESTAMP
		WHERE project_id = $1 AND id = $2 AND revoked_at IS NULL
	`

	if _, err := r.db.conn.ExecContext(ctx, query, projectID, id); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	r.cache.Delete(key.LookupDigest)
	return nil
}

// Lookup resolves a plaintext API key into an auth record. Positive matches
// are cached by lookup digest; revoked keys are never cached.
func (r *APIKeyRepository) Lookup(ctx context.Context, plaintextKey string) (*auth.APIKeyRecord, error) {
	digest := utils.HashString(plaintextKey)

	if cached, found := r.cache.Get(digest); found {
		return cached.(*auth.APIKeyRecord), nil
	}

	query := `
		SELECT id, project_id, name, lookup_digest, secret_hash, created_at, revoked_at
		FROM api_keys
		WHERE lookup_digest = $1
	`

	var key models.APIKey
	err := r.db.conn.GetContext(ctx, &key, query, digest)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(plaintextKey)); err != nil {
		return nil, auth.ErrKeyNotFound
	}

	record := &auth.APIKeyRecord{
		ID:        key.ID,
		ProjectID: key.ProjectID,
		Name:      key.Name,
		Revoked:   key.Revoked(),
	}

	if !record.Revoked {
		r.cache.Set(digest, record)
	}

	return record, nil
}
