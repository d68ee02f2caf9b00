package controller

import "net/http"

// HandleMetrics returns the engine's rolling counters and ring sizes.
// Endpoint: GET /metrics (auth required)
func (c *Controller) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, c.App.Engine.Snapshot())
}

// HandleConfig returns the active engine configuration.
// Endpoint: GET /config (auth required)
func (c *Controller) HandleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, c.App.Engine.Config())
}
