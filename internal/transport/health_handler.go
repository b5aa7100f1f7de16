package transport

import (
	"net/http"
	"time"

	"h2o-shop/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// HealthChecker reports the state of a backing service.
type HealthChecker interface {
	Health() map[string]string
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Mode      string            `json:"mode"`
	Timestamp string            `json:"timestamp"`
	Database  map[string]string `json:"database,omitempty"`
}

// HealthHandler answers liveness checks
type HealthHandler struct {
	db   HealthChecker
	mode string
}

// NewHealthHandler creates a new HealthHandler. db may be nil.
func NewHealthHandler(db HealthChecker, mode string) *HealthHandler {
	return &HealthHandler{db: db, mode: mode}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health reports "ok" or, when the database is down, "degraded" with 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Mode:      h.mode,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.db != nil {
		resp.Database = h.db.Health()
		if resp.Database["status"] != "up" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	middleware.RespondWithJSON(w, status, resp)
}
