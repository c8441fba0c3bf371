package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// defaultWindow is the analytics lookback when the request omits one.
const defaultWindow = 24 * time.Hour

// AnalyticsHandler serves reporting endpoints backed by the transaction sink.
// All endpoints return 503 when the service runs without a database.
type AnalyticsHandler struct {
	analytics AnalyticsReader
	log       *logrus.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler. analytics may be nil when
// no database is configured.
func NewAnalyticsHandler(analytics AnalyticsReader, log *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, log: log}
}

func (h *AnalyticsHandler) available(c *gin.Context) bool {
	if h.analytics == nil {
		respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "analytics requires a configured database")

		return false
	}

	return true
}

// parseWindow reads the ?window= query parameter as a Go duration.
func parseWindow(c *gin.Context) (time.Duration, bool) {
	raw := c.Query("window")
	if raw == "" {
		return defaultWindow, true
	}

	w, err := time.ParseDuration(raw)
	if err != nil || w <= 0 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "window must be a positive duration like 1h or 30m")

		return 0, false
	}

	return w, true
}

// RiskDistribution handles GET /api/v1/analytics/risk-distribution.
func (h *AnalyticsHandler) RiskDistribution(c *gin.Context) {
	if !h.available(c) {
		return
	}

	window, ok := parseWindow(c)
	if !ok {
		return
	}

	dist, err := h.analytics.RiskDistribution(c.Request.Context(), window)
	if err != nil {
		h.log.WithError(err).Error("analytics: risk distribution query failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, dist)
}

// TopUsers handles GET /api/v1/analytics/top-users.
func (h *AnalyticsHandler) TopUsers(c *gin.Context) {
	if !h.available(c) {
		return
	}

	window, ok := parseWindow(c)
	if !ok {
		return
	}

	limit := parseInt(c.Query("limit"), 10)

	users, err := h.analytics.TopRiskyUsers(c.Request.Context(), window, limit)
	if err != nil {
		h.log.WithError(err).Error("analytics: top users query failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UserProfile handles GET /api/v1/analytics/users/:id.
func (h *AnalyticsHandler) UserProfile(c *gin.Context) {
	if !h.available(c) {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	profile, err := h.analytics.UserProfile(c.Request.Context(), id)
	if err != nil {
		h.log.WithError(err).Error("analytics: user profile query failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	if profile.TotalTransactions == 0 {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "no transactions recorded for user")

		return
	}

	c.JSON(http.StatusOK, profile)
}

// Performance handles GET /api/v1/analytics/performance.
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	if !h.available(c) {
		return
	}

	window, ok := parseWindow(c)
	if !ok {
		return
	}

	summary, err := h.analytics.Performance(c.Request.Context(), window)
	if err != nil {
		h.log.WithError(err).Error("analytics: performance query failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, summary)
}
