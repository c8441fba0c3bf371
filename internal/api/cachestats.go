package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CacheHandler serves the cache statistics endpoint.
type CacheHandler struct {
	cache CacheInspector
	log   *logrus.Logger
}

// NewCacheHandler creates a CacheHandler.
func NewCacheHandler(cache CacheInspector, log *logrus.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, log: log}
}

// GetStats handles GET /api/v1/cache/stats.
func (h *CacheHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats(c.Request.Context()))
}
