package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"tracehub/internal/middleware"
	"tracehub/internal/usage"
	"tracehub/internal/utils"
)

// UsageHandler serves per-user usage rollups for the session's project
type UsageHandler struct {
	service *usage.Service
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(service *usage.Service) *UsageHandler {
	return &UsageHandler{service: service}
}

// ListUsersResponse is one page of rollups plus the total group count
type ListUsersResponse struct {
	Users      interface{} `json:"users"`
	TotalCount int64       `json:"totalCount"`
	Limit      int         `json:"limit"`
	Page       int         `json:"page"`
}

// HandleList handles GET /v1/usage/users
func (h *UsageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	page := 0
	if v := r.URL.Query().Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		page = parsed
	}

	users, total, err := h.service.ListUserUsage(r.Context(), session.ProjectID, limit, page)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list user usage")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ListUsersResponse{
		Users:      users,
		TotalCount: total,
		Limit:      limit,
		Page:       page,
	})
}

// HandleGet handles GET /v1/usage/users/{userId}
func (h *UsageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/v1/usage/users/")
	if userID == "" || strings.Contains(userID, "/") {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	result, err := h.service.GetUserUsage(r.Context(), session.ProjectID, userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get user usage")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}
