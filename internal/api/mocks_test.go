package api_test

import (
	"context"
	"time"

	"github.com/riskmesh/riskmesh/internal/cache"
	"github.com/riskmesh/riskmesh/internal/models"
)

// mockEngine returns a canned result or error.
type mockEngine struct {
	result *models.RiskResult
	err    error

	gotPrincipal string
	gotEvent     models.Event
}

func (m *mockEngine) Process(_ context.Context, principal string, ev models.Event) (*models.RiskResult, error) {
	m.gotPrincipal = principal
	m.gotEvent = ev

	if m.err != nil {
		return nil, m.err
	}

	if m.result != nil {
		return m.result, nil
	}

	return &models.RiskResult{
		TransactionID: "tx-1",
		RiskScore:     0.5,
		Explanation: models.Explanation{
			Recommendation: models.RecommendReview,
			RiskCategory:   models.RiskMedium,
		},
	}, nil
}

// mockAnalytics returns canned reports or a shared error.
type mockAnalytics struct {
	distribution *models.RiskDistribution
	users        []models.RiskyUser
	profile      *models.UserProfile
	performance  *models.PerformanceSummary
	err          error

	gotWindow time.Duration
	gotLimit  int
}

func (m *mockAnalytics) RiskDistribution(_ context.Context, window time.Duration) (*models.RiskDistribution, error) {
	m.gotWindow = window

	if m.err != nil {
		return nil, m.err
	}

	if m.distribution != nil {
		return m.distribution, nil
	}

	return &models.RiskDistribution{}, nil
}

func (m *mockAnalytics) TopRiskyUsers(_ context.Context, window time.Duration, limit int) ([]models.RiskyUser, error) {
	m.gotWindow = window
	m.gotLimit = limit

	return m.users, m.err
}

func (m *mockAnalytics) UserProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}

	if m.profile != nil {
		return m.profile, nil
	}

	return &models.UserProfile{UserID: userID}, nil
}

func (m *mockAnalytics) Performance(_ context.Context, window time.Duration) (*models.PerformanceSummary, error) {
	m.gotWindow = window

	if m.err != nil {
		return nil, m.err
	}

	if m.performance != nil {
		return m.performance, nil
	}

	return &models.PerformanceSummary{}, nil
}

// mockCache reports fixed cache stats.
type mockCache struct {
	stats cache.Stats
}

func (m *mockCache) Stats(context.Context) cache.Stats {
	return m.stats
}
