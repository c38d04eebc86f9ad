package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ctt-evolver/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	progress runProgressReader
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, progress runProgressReader) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, progress: progress}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports liveness together with whether a run is in progress.
func (h *MetricsHandler) Health(c *gin.Context) {
	running := false
	if h.progress != nil {
		running = h.progress.Progress().Running
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "running": running})
}
