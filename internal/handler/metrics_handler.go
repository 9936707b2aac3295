package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   pinger
}

// NewMetricsHandler constructs a metrics handler. metrics may be nil when disabled.
func NewMetricsHandler(metrics *service.MetricsService, store pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok"}
	if h.metrics != nil {
		resp.Metrics = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Ready checks that the record store answers.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			response.Error(c, appErrors.Wrap(err, "NOT_READY", http.StatusServiceUnavailable, "record store unavailable"))
			return
		}
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Store: "up"})
}
