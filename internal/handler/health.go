package handler

import (
	"net/http"
	"time"

	"imvu-insight-api/internal/repository"
	"imvu-insight-api/pkg/apierror"
	"imvu-insight-api/pkg/response"
)

// HealthHandler serves liveness and database health endpoints.
type HealthHandler struct {
	store   *repository.Store
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store *repository.Store, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

// HealthDB handles GET /health/db. Database errors are downgraded to a 503
// with a generic message; driver detail never reaches the caller.
func (h *HealthHandler) HealthDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(r.Context()); err != nil {
		response.Error(w, apierror.ServiceUnavailable("database unavailable"))
		return
	}
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}
