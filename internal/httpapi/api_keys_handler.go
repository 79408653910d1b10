package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tracehub/internal/audit"
	"tracehub/internal/middleware"
	"tracehub/internal/models"
	"tracehub/internal/storage"
	"tracehub/internal/utils"
)

// APIKeyManager is the storage surface for API key management.
// Implemented by storage.APIKeyRepository.
type APIKeyManager interface {
	Create(ctx context.Context, projectID uuid.UUID, name string) (*models.APIKey, string, error)
	GetByID(ctx context.Context, projectID, id uuid.UUID) (*models.APIKey, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.APIKey, error)
	Revoke(ctx context.Context, projectID, id uuid.UUID) error
}

// APIKeysHandler manages project ingest keys. Every mutation is recorded in
// the audit log after it commits, using the explicit actor shape resolved
// from the session.
type APIKeysHandler struct {
	keys     APIKeyManager
	recorder *audit.Recorder
	logger   *utils.Logger
}

// NewAPIKeysHandler creates a new API keys handler
func NewAPIKeysHandler(keys APIKeyManager, recorder *audit.Recorder) *APIKeysHandler {
	return &APIKeysHandler{
		keys:     keys,
		recorder: recorder,
		logger:   utils.NewLogger("api-keys"),
	}
}

// CreateAPIKeyRequest is the request to create a new ingest key
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// APIKeyCreatedResponse returns the new key. This is the only time the
// plaintext key is returned.
type APIKeyCreatedResponse struct {
	*models.APIKey
	Key string `json:"key"`
}

// HandleCollection handles /v1/api-keys (GET list, POST create)
func (h *APIKeysHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleItem handles /v1/api-keys/{id} (DELETE revoke)
func (h *APIKeysHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.revoke(w, r)
}

func (h *APIKeysHandler) list(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	keys, err := h.keys.ListByProject(r.Context(), session.ProjectID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, keys)
}

func (h *APIKeysHandler) create(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	key, plaintext, err := h.keys.Create(r.Context(), session.ProjectID, req.Name)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	// The key exists now; an audit failure must not pretend otherwise.
	if err := h.recorder.Record(r.Context(), audit.Entry{
		ResourceType: models.ResourceAPIKey,
		ResourceID:   key.ID.String(),
		Action:       "create",
		Actor: &audit.Actor{
			ProjectID:       session.ProjectID,
			UserID:          session.UserID,
			UserProjectRole: session.ProjectRole,
		},
		After: key,
	}); err != nil {
		h.logger.Error("Audit write failed after key create", "key_id", key.ID, "error", err)
	}

	utils.RespondWithJSON(w, http.StatusCreated, APIKeyCreatedResponse{
		APIKey: key,
		Key:    plaintext,
	})
}

func (h *APIKeysHandler) revoke(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/v1/api-keys/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid API key id")
		return
	}

	before, err := h.keys.GetByID(r.Context(), session.ProjectID, id)
	if err != nil {
		if err == storage.ErrAPIKeyNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "API key not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load API key")
		return
	}

	if err := h.keys.Revoke(r.Context(), session.ProjectID, id); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to revoke API key")
		return
	}

	if err := h.recorder.Record(r.Context(), audit.Entry{
		ResourceType: models.ResourceAPIKey,
		ResourceID:   id.String(),
		Action:       "delete",
		Actor: &audit.Actor{
			ProjectID:       session.ProjectID,
			UserID:          session.UserID,
			UserProjectRole: session.ProjectRole,
		},
		Before: before,
	}); err != nil {
		h.logger.Error("Audit write failed after key revoke", "key_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
