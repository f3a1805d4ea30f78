package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	httputil "opacbookings/pkg/http"
	"opacbookings/pkg/logger"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Dependency is a backing service the readiness check pings.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	deps []Dependency
	log  *logger.Logger
}

func NewHealthHandler(log *logger.Logger, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		deps: deps,
		log:  log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", dep.Name,
				"error", err,
				"path", r.URL.Path,
			)
			checks[dep.Name] = "error"
			status, code = "unavailable", http.StatusServiceUnavailable
			continue
		}
		checks[dep.Name] = "ok"
	}

	if err := httputil.WriteJSON(w, code, HealthResponse{
		Status: status,
		Checks: checks,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
