package controller

import (
	"context"
	"net/http"
	"time"
)

// HandleHealth reports liveness.
// Endpoint: GET /healthz
func (c *Controller) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleReady reports readiness, including the optional Redis sink.
// Endpoint: GET /readyz
func (c *Controller) HandleReady(w http.ResponseWriter, r *http.Request) {
	if c.App.Redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.App.Redis.Health(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
