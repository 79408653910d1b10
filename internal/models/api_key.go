package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a project-scoped ingestion credential. The plaintext key is
// shown once at creation; only a lookup digest and a bcrypt hash of the
// secret are stored.
type APIKey struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ProjectID    uuid.UUID  `db:"project_id" json:"projectId"`
	Name         string     `db:"name" json:"name"`
	LookupDigest string     `db:"lookup_digest" json:"-"`
	SecretHash   string     `db:"secret_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
}

// Revoked reports whether the key has been revoked.
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}
