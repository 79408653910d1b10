package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"tracehub/internal/middleware"
	"tracehub/internal/models"
	"tracehub/internal/ratelimit"
	"tracehub/internal/utils"
)

// EventQueue accepts validated events for async persistence. Implemented by
// storage.IngestWorker.
type EventQueue interface {
	Enqueue(ctx context.Context, event *models.Event) error
}

// IngestHandler accepts event batches from instrumented producers
type IngestHandler struct {
	queue     EventQueue
	limiter   ratelimit.Limiter
	rateLimit int
	maxBatch  int
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(queue EventQueue, limiter ratelimit.Limiter, rateLimit int) *IngestHandler {
	return &IngestHandler{
		queue:     queue,
		limiter:   limiter,
		rateLimit: rateLimit,
		maxBatch:  1000,
	}
}

// IngestRequest is a batch of events from one producer
type IngestRequest struct {
	Events []models.Event `json:"events"`
}

// IngestResponse reports how many events were accepted
type IngestResponse struct {
	Accepted int `json:"accepted"`
}

// ServeHTTP handles POST /v1/ingest
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	keyRecord, ok := middleware.GetAPIKeyRecord(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing API key context")
		return
	}

	allowed, err := h.limiter.Allow(r.Context(), keyRecord.ID.String(), h.rateLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Rate limit check failed")
		return
	}
	if !allowed {
		utils.RespondWithError(w, http.StatusTooManyRequests, "Ingest rate limit exceeded")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Events) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "No events in request")
		return
	}
	if len(req.Events) > h.maxBatch {
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Too many events in one batch")
		return
	}

	accepted := 0
	for i := range req.Events {
		event := &req.Events[i]
		if err := event.Validate(); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid event: "+err.Error())
			return
		}

		// Events are always written under the key's project, regardless of
		// what the producer claims.
		switch event.Type {
		case models.EventTrace:
			event.Trace.ProjectID = keyRecord.ProjectID
		case models.EventObservation:
			event.Observation.ProjectID = keyRecord.ProjectID
		}

		if err := h.queue.Enqueue(r.Context(), event); err != nil {
			utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to enqueue event")
			return
		}
		accepted++
	}

	utils.RespondWithJSON(w, http.StatusAccepted, IngestResponse{Accepted: accepted})
}
