package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceType identifies the kind of protected resource an audit log entry
// refers to. The set is fixed; entries with any other value are rejected
// before they reach the store.
type ResourceType string

const (
	ResourceMembership           ResourceType = "membership"
	ResourceMembershipInvitation ResourceType = "membershipInvitation"
	ResourceDatasetItem          ResourceType = "datasetItem"
	ResourceDataset              ResourceType = "dataset"
	ResourceTrace                ResourceType = "trace"
	ResourceProject              ResourceType = "project"
	ResourceObservation          ResourceType = "observation"
	ResourceScore                ResourceType = "score"
	ResourceModel                ResourceType = "model"
	ResourcePrompt               ResourceType = "prompt"
	ResourceSession              ResourceType = "session"
	ResourceAPIKey               ResourceType = "apiKey"
)

// IsValid checks if the resource type is one of the known resource types
func (r ResourceType) IsValid() bool {
	switch r {
	case ResourceMembership, ResourceMembershipInvitation, ResourceDatasetItem,
		ResourceDataset, ResourceTrace, ResourceProject, ResourceObservation,
		ResourceScore, ResourceModel, ResourcePrompt, ResourceSession,
		ResourceAPIKey:
		return true
	default:
		return false
	}
}

// String returns the string representation of the resource type
func (r ResourceType) String() string {
	return string(r)
}

// AuditLogEntry is one immutable record of a state-changing action: who did
// it, under which project role at the time, and what the resource looked like
// before and after. Entries are insert-only; nothing in this system updates
// or deletes them.
type AuditLogEntry struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	CreatedAt       time.Time    `db:"created_at" json:"createdAt"`
	ProjectID       uuid.UUID    `db:"project_id" json:"projectId"`
	UserID          string       `db:"user_id" json:"userId"`
	UserProjectRole string       `db:"user_project_role" json:"userProjectRole"`
	ResourceType    ResourceType `db:"resource_type" json:"resourceType"`
	ResourceID      string       `db:"resource_id" json:"resourceId"`
	Action          string       `db:"action" json:"action"`
	// Before and After hold JSON-serialized snapshots; nil means the snapshot
	// was not supplied, which is stored as SQL NULL rather than a literal
	// "null" string.
	Before *string `db:"before" json:"before,omitempty"`
	After  *string `db:"after" json:"after,omitempty"`
}
