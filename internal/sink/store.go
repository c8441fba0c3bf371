// Package sink persists scored transactions to PostgreSQL off the request
// path and answers analytics queries over the persisted history.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/riskmesh/riskmesh/internal/dbpool"
	"github.com/riskmesh/riskmesh/internal/models"
)

// queryTimeout bounds every sink database operation.
const queryTimeout = 10 * time.Second

// Store provides data access for the transactions table.
type Store struct {
	pool *dbpool.Pool
}

// NewStore creates a Store.
func NewStore(pool *dbpool.Pool) *Store {
	return &Store{pool: pool}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// InsertTransaction writes one scored transaction row.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (
			id, user_id, device_id, ip_address, merchant_id, card_id,
			transaction_amount, risk_score, propagation_depth, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		tx.ID, tx.UserID, tx.DeviceID, tx.IPAddress, tx.MerchantID, nullable(tx.CardID),
		tx.TransactionAmount, tx.RiskScore, tx.PropagationDepth, tx.LatencyMs, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	return nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
