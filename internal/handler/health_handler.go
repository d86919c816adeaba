package handler

import (
	"context"
	"net/http"
	"time"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checker healthChecker
}

// NewHealthHandler reports liveness and, when checker is set, store health.
func NewHealthHandler(checker healthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "store": "file"}

	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.checker.Health(ctx); err != nil {
			status["status"] = "degraded"
			status["store"] = "unreachable"
			writeSuccess(w, http.StatusServiceUnavailable, status, nil)
			return
		}
		status["store"] = "postgres"
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
