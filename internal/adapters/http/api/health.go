package api

import (
	"net/http"
	"time"

	"github.com/okian/slopguard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves liveness and Prometheus metrics.
type HealthHandler struct {
	startedAt time.Time
	metrics   http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		metrics:   promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// HandleMetrics handles GET /metrics requests from our custom registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
