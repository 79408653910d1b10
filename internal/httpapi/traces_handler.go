package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tracehub/internal/audit"
	"tracehub/internal/middleware"
	"tracehub/internal/models"
	"tracehub/internal/storage"
	"tracehub/internal/utils"
)

// TraceStore is the storage surface for trace reads and deletes.
// Implemented by storage.TraceRepository.
type TraceStore interface {
	GetByID(ctx context.Context, projectID, id uuid.UUID) (*models.Trace, error)
	Delete(ctx context.Context, projectID, id uuid.UUID) error
}

// TracesHandler serves individual traces. Deletes are audited with a before
// snapshot taken while the trace still exists.
type TracesHandler struct {
	traces   TraceStore
	recorder *audit.Recorder
	logger   *utils.Logger
}

// NewTracesHandler creates a new traces handler
func NewTracesHandler(traces TraceStore, recorder *audit.Recorder) *TracesHandler {
	return &TracesHandler{
		traces:   traces,
		recorder: recorder,
		logger:   utils.NewLogger("traces"),
	}
}

// HandleItem handles /v1/traces/{id} (GET, DELETE)
func (h *TracesHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/v1/traces/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid trace id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, session.ProjectID, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *TracesHandler) get(w http.ResponseWriter, r *http.Request, projectID, id uuid.UUID) {
	trace, err := h.traces.GetByID(r.Context(), projectID, id)
	if err != nil {
		if err == storage.ErrTraceNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Trace not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get trace")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, trace)
}

func (h *TracesHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	session, _ := middleware.GetSession(r.Context())

	// Snapshot before deleting; afterwards there is nothing left to read.
	before, err := h.traces.GetByID(r.Context(), session.ProjectID, id)
	if err != nil {
		if err == storage.ErrTraceNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Trace not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get trace")
		return
	}

	if err := h.traces.Delete(r.Context(), session.ProjectID, id); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete trace")
		return
	}

	// The delete already committed; log the audit failure instead of failing
	// the request.
	if err := h.recorder.Record(r.Context(), audit.Entry{
		ResourceType: models.ResourceTrace,
		ResourceID:   id.String(),
		Action:       "delete",
		Session:      session,
		Before:       before,
	}); err != nil {
		h.logger.Error("Audit write failed after trace delete", "trace_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
