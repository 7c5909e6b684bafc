package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
	"github.com/scode550/MultiRole-Chatbot/internal/repositories"
	"github.com/scode550/MultiRole-Chatbot/internal/services"
)

// HealthHandler reports server health including the reachability of
// each backing service
type HealthHandler struct {
	inference services.InferenceClientInterface
	sessions  repositories.SessionRepository
	vectors   repositories.VectorRepository
	logger    *log.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(inference services.InferenceClientInterface, sessions repositories.SessionRepository, vectors repositories.VectorRepository, logger *log.Logger) *HealthHandler {
	return &HealthHandler{
		inference: inference,
		sessions:  sessions,
		vectors:   vectors,
		logger:    logger,
	}
}

// Check reports server health and per-dependency reachability
// @Summary Health check
// @Description Check the server and the reachability of Redis, ChromaDB and the inference backend
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	statuses := map[string]string{
		"redis":     "up",
		"chromadb":  "up",
		"inference": "up",
	}
	healthy := true

	if err := h.sessions.Ping(ctx); err != nil {
		h.logger.Printf("Health check: redis unreachable: %v", err)
		statuses["redis"] = "down"
		healthy = false
	}

	if err := h.vectors.Ping(ctx); err != nil {
		h.logger.Printf("Health check: chromadb unreachable: %v", err)
		statuses["chromadb"] = "down"
		healthy = false
	}

	if up, err := h.inference.HealthCheck(ctx); err != nil || !up {
		h.logger.Printf("Health check: inference backend unhealthy (err: %v)", err)
		statuses["inference"] = "down"
		healthy = false
	}

	response := models.HealthResponse{
		Status:   "healthy",
		Services: statuses,
	}
	code := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
