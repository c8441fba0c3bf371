package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/dbpool"
	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool // nil when running without a database
	Engine        EventProcessor
	Graph         *graph.Store
	Cache         CacheInspector
	Analytics     AnalyticsReader // nil when running without a database
	Keyring       *middleware.Keyring
	CORSOrigins   []string
	Version       string
	EventDeadline time.Duration

	// RateBurstSeconds sizes each principal's token bucket.
	RateBurstSeconds float64
}

// maxBodySize limits scoring request bodies. Events are small; anything
// close to this limit is garbage.
const maxBodySize = 1 << 20 // 1 MB

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.APIKeyHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Cache, log, deps.Version)
	events := NewEventHandler(deps.Engine, log, deps.EventDeadline)
	stats := NewStatsHandler(deps.Graph, log)
	analytics := NewAnalyticsHandler(deps.Analytics, log)
	cacheStats := NewCacheHandler(deps.Cache, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication and per-principal rate
	// limiting.
	api.Use(middleware.Authenticate(deps.Keyring, log))
	api.Use(middleware.NewRateLimiter(ctx, deps.RateBurstSeconds).Handler())

	// Scoring.
	api.POST("/event", events.Score)

	// Graph statistics.
	api.GET("/stats", stats.GetStats)
	api.GET("/graph/nodes/:id", stats.GetNode)

	// Analytics.
	api.GET("/analytics/risk-distribution", analytics.RiskDistribution)
	api.GET("/analytics/top-users", analytics.TopUsers)
	api.GET("/analytics/users/:id", analytics.UserProfile)
	api.GET("/analytics/performance", analytics.Performance)

	// Cache.
	api.GET("/cache/stats", cacheStats.GetStats)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
