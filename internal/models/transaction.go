package models

import "time"

// Transaction is the durable row written for every processed event.
// No graph state is persisted; the graph is reconstructible from these rows.
type Transaction struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	DeviceID          string    `json:"device_id"`
	IPAddress         string    `json:"ip_address"`
	MerchantID        string    `json:"merchant_id"`
	CardID            string    `json:"card_id,omitempty"`
	TransactionAmount float64   `json:"transaction_amount"`
	RiskScore         float64   `json:"risk_score"`
	PropagationDepth  int       `json:"propagation_depth"`
	LatencyMs         float64   `json:"latency_ms"`
	CreatedAt         time.Time `json:"created_at"`
}
