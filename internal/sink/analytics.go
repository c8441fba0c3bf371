package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/riskmesh/riskmesh/internal/dbpool"
	"github.com/riskmesh/riskmesh/internal/models"
)

// Analytics answers reporting queries over persisted transactions.
// Concurrent identical requests are collapsed through singleflight so a
// dashboard refresh storm issues each query once.
type Analytics struct {
	pool  *dbpool.Pool
	group singleflight.Group
}

// NewAnalytics creates an Analytics reader.
func NewAnalytics(pool *dbpool.Pool) *Analytics {
	return &Analytics{pool: pool}
}

// RiskDistribution summarizes risk scores over the last `window`.
func (a *Analytics) RiskDistribution(ctx context.Context, window time.Duration) (*models.RiskDistribution, error) {
	key := "distribution:" + strconv.FormatInt(int64(window), 10)

	v, err, _ := a.group.Do(key, func() (any, error) {
		return a.riskDistribution(ctx, window)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.RiskDistribution), nil
}

func (a *Analytics) riskDistribution(ctx context.Context, window time.Duration) (*models.RiskDistribution, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var d models.RiskDistribution

	err := a.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(risk_score), 0),
			COALESCE(MIN(risk_score), 0),
			COALESCE(MAX(risk_score), 0),
			COUNT(*) FILTER (WHERE risk_score >= 0.6),
			COUNT(*) FILTER (WHERE risk_score >= 0.3 AND risk_score < 0.6),
			COUNT(*) FILTER (WHERE risk_score < 0.3),
			COALESCE(PERCENTILE_CONT(0.50) WITHIN GROUP (ORDER BY risk_score), 0),
			COALESCE(PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY risk_score), 0),
			COALESCE(PERCENTILE_CONT(0.99) WITHIN GROUP (ORDER BY risk_score), 0)
		FROM transactions
		WHERE created_at >= NOW() - $1::interval`,
		window,
	).Scan(
		&d.TotalTransactions, &d.MeanRisk, &d.MinRisk, &d.MaxRisk,
		&d.HighRiskCount, &d.MediumRiskCount, &d.LowRiskCount,
		&d.P50, &d.P95, &d.P99,
	)
	if err != nil {
		return nil, fmt.Errorf("querying risk distribution: %w", err)
	}

	return &d, nil
}

// TopRiskyUsers returns the users with the highest average risk over the
// last `window`, strongest first.
func (a *Analytics) TopRiskyUsers(ctx context.Context, window time.Duration, limit int) ([]models.RiskyUser, error) {
	if limit <= 0 {
		limit = 10
	}

	key := "top-users:" + strconv.FormatInt(int64(window), 10) + ":" + strconv.Itoa(limit)

	v, err, _ := a.group.Do(key, func() (any, error) {
		return a.topRiskyUsers(ctx, window, limit)
	})
	if err != nil {
		return nil, err
	}

	return v.([]models.RiskyUser), nil
}

func (a *Analytics) topRiskyUsers(ctx context.Context, window time.Duration, limit int) ([]models.RiskyUser, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := a.pool.Query(ctx, `
		SELECT user_id, COUNT(*), AVG(risk_score), MAX(risk_score)
		FROM transactions
		WHERE created_at >= NOW() - $1::interval
		GROUP BY user_id
		ORDER BY AVG(risk_score) DESC, user_id ASC
		LIMIT $2`,
		window, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top risky users: %w", err)
	}
	defer rows.Close()

	users := make([]models.RiskyUser, 0, limit)

	for rows.Next() {
		var u models.RiskyUser
		if err := rows.Scan(&u.UserID, &u.TransactionCount, &u.AvgRisk, &u.MaxRisk); err != nil {
			return nil, fmt.Errorf("scanning risky user: %w", err)
		}

		users = append(users, u)
	}

	return users, rows.Err()
}

// UserProfile summarizes one user's persisted transaction history.
func (a *Analytics) UserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	v, err, _ := a.group.Do("profile:"+userID, func() (any, error) {
		return a.userProfile(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.UserProfile), nil
}

func (a *Analytics) userProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p := models.UserProfile{UserID: userID}

	err := a.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(transaction_amount), 0),
			COALESCE(AVG(transaction_amount), 0),
			COALESCE(MAX(transaction_amount), 0),
			COALESCE(AVG(risk_score), 0),
			COALESCE(MAX(risk_score), 0),
			COUNT(DISTINCT device_id),
			COUNT(DISTINCT ip_address),
			COUNT(DISTINCT merchant_id),
			COUNT(*) FILTER (WHERE risk_score >= 0.6)
		FROM transactions
		WHERE user_id = $1`,
		userID,
	).Scan(
		&p.TotalTransactions, &p.TotalVolume, &p.AvgAmount, &p.MaxAmount,
		&p.AvgRisk, &p.MaxRisk,
		&p.UniqueDevices, &p.UniqueIPs, &p.UniqueMerchants, &p.FlaggedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("querying user profile: %w", err)
	}

	return &p, nil
}

// Performance reports scoring throughput and latency over the last `window`.
func (a *Analytics) Performance(ctx context.Context, window time.Duration) (*models.PerformanceSummary, error) {
	key := "performance:" + strconv.FormatInt(int64(window), 10)

	v, err, _ := a.group.Do(key, func() (any, error) {
		return a.performance(ctx, window)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.PerformanceSummary), nil
}

func (a *Analytics) performance(ctx context.Context, window time.Duration) (*models.PerformanceSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var s models.PerformanceSummary

	err := a.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE risk_score >= 0.6),
			COALESCE(AVG(latency_ms), 0),
			COALESCE(AVG(propagation_depth), 0)
		FROM transactions
		WHERE created_at >= NOW() - $1::interval`,
		window,
	).Scan(&s.TotalTransactions, &s.FlaggedCount, &s.AvgLatencyMs, &s.AvgPropagationDepth)
	if err != nil {
		return nil, fmt.Errorf("querying performance summary: %w", err)
	}

	if s.TotalTransactions > 0 {
		s.FlagRate = float64(s.FlaggedCount) / float64(s.TotalTransactions)
	}

	return &s, nil
}
