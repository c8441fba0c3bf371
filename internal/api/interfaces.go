package api

import (
	"context"
	"time"

	"github.com/riskmesh/riskmesh/internal/cache"
	"github.com/riskmesh/riskmesh/internal/models"
)

// EventProcessor scores one transaction event.
type EventProcessor interface {
	Process(ctx context.Context, principal string, ev models.Event) (*models.RiskResult, error)
}

// AnalyticsReader answers reporting queries over persisted transactions.
type AnalyticsReader interface {
	RiskDistribution(ctx context.Context, window time.Duration) (*models.RiskDistribution, error)
	TopRiskyUsers(ctx context.Context, window time.Duration, limit int) ([]models.RiskyUser, error)
	UserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	Performance(ctx context.Context, window time.Duration) (*models.PerformanceSummary, error)
}

// CacheInspector exposes cache health for the stats endpoint.
type CacheInspector interface {
	Stats(ctx context.Context) cache.Stats
}
