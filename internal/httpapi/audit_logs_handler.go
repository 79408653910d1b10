package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"tracehub/internal/middleware"
	"tracehub/internal/models"
	"tracehub/internal/storage"
	"tracehub/internal/utils"
)

// AuditLogLister is the read surface for the audit trail. Implemented by
// storage.AuditLogRepository.
type AuditLogLister interface {
	List(ctx context.Context, filter storage.AuditLogFilter) ([]*models.AuditLogEntry, error)
}

// AuditLogsHandler serves the audit trail, read only.
type AuditLogsHandler struct {
	logs AuditLogLister
}

// NewAuditLogsHandler creates a new audit logs handler
func NewAuditLogsHandler(logs AuditLogLister) *AuditLogsHandler {
	return &AuditLogsHandler{logs: logs}
}

// HandleList handles GET /v1/audit-logs with optional userId, resourceType,
// resourceId and limit query parameters.
func (h *AuditLogsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	filter := storage.AuditLogFilter{
		ProjectID:  session.ProjectID,
		UserID:     r.URL.Query().Get("userId"),
		ResourceID: r.URL.Query().Get("resourceId"),
	}

	if rt := r.URL.Query().Get("resourceType"); rt != "" {
		resourceType := models.ResourceType(rt)
		if !resourceType.IsValid() {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid resource type: "+rt)
			return
		}
		filter.ResourceType = resourceType
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.logs.List(r.Context(), filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list audit logs")
		return
	}
	if entries == nil {
		entries = []*models.AuditLogEntry{}
	}

	utils.RespondWithJSON(w, http.StatusOK, entries)
}
