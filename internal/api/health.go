package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/dbpool"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool      *dbpool.Pool
	cache     CacheInspector
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. pool may be nil when the service
// runs without durable persistence.
func NewHealthHandler(pool *dbpool.Pool, cache CacheInspector, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		cache:     cache,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Cache         string  `json:"cache"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health: always 200 while the process serves.
// Scoring runs entirely in memory, so liveness does not depend on the
// database or cache; their states are reported informationally.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "not_configured",
		Cache:         "disabled",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp.Database = "connected"
		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	}

	if h.cache != nil && h.cache.Stats(c.Request.Context()).Enabled {
		resp.Cache = "connected"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready: not ready only when a configured
// database is unreachable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{"database": "not_configured"}
	status := "ready"
	statusCode := http.StatusOK

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks["database"] = "ok"
		if err := h.pool.HealthCheck(ctx); err != nil {
			h.log.WithError(err).Error("readiness: database health check failed")
			checks["database"] = "error"
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, readinessResponse{Status: status, Checks: checks})
}
