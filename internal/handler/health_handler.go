package handler

import (
	"context"
	"net/http"
	"time"

	"feedback-be/pkg/logger"
)

// HealthChecker reports the status of each backing dependency
type HealthChecker interface {
	Health(ctx context.Context) map[string]error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	checker HealthChecker
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "feedback-be",
		Checks:    make(map[string]string),
	}

	status := http.StatusOK
	for name, err := range h.checker.Health(ctx) {
		if err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			response.Checks[name] = "unhealthy"
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "healthy"
	}

	respondJSON(w, status, response)
}
