package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// AnalyticsService queries reporting endpoints backed by the transaction
// history. The server returns 503 when it runs without a database.
type AnalyticsService struct {
	c *Client
}

// windowParams encodes an optional lookback window.
func windowParams(window time.Duration) url.Values {
	if window <= 0 {
		return nil
	}
	return url.Values{"window": []string{window.String()}}
}

// RiskDistribution returns the risk score distribution over the window.
// A zero window uses the server default.
func (s *AnalyticsService) RiskDistribution(ctx context.Context, window time.Duration) (*RiskDistribution, error) {
	var resp RiskDistribution
	if err := s.c.get(ctx, "/api/v1/analytics/risk-distribution", windowParams(window), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TopUsers returns the highest-risk users over the window.
func (s *AnalyticsService) TopUsers(ctx context.Context, window time.Duration, limit int) ([]RiskyUser, error) {
	params := windowParams(window)
	if limit > 0 {
		if params == nil {
			params = url.Values{}
		}
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Users []RiskyUser `json:"users"`
	}
	if err := s.c.get(ctx, "/api/v1/analytics/top-users", params, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UserProfile returns one user's transaction behavior summary.
func (s *AnalyticsService) UserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var resp UserProfile
	if err := s.c.get(ctx, "/api/v1/analytics/users/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Performance returns the rolling scoring-performance report.
func (s *AnalyticsService) Performance(ctx context.Context, window time.Duration) (*PerformanceSummary, error) {
	var resp PerformanceSummary
	if err := s.c.get(ctx, "/api/v1/analytics/performance", windowParams(window), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
