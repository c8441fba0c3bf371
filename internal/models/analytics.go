package models

// RiskDistribution summarizes scores over a lookback window.
type RiskDistribution struct {
	TotalTransactions int     `json:"total_transactions"`
	MeanRisk          float64 `json:"mean_risk"`
	MinRisk           float64 `json:"min_risk"`
	MaxRisk           float64 `json:"max_risk"`
	HighRiskCount     int     `json:"high_risk_count"`
	MediumRiskCount   int     `json:"medium_risk_count"`
	LowRiskCount      int     `json:"low_risk_count"`
	P50               float64 `json:"p50"`
	P95               float64 `json:"p95"`
	P99               float64 `json:"p99"`
}

// RiskyUser is one entry in the top-risky-users report.
type RiskyUser struct {
	UserID           string  `json:"user_id"`
	TransactionCount int     `json:"transaction_count"`
	AvgRisk          float64 `json:"avg_risk"`
	MaxRisk          float64 `json:"max_risk"`
}

// UserProfile summarizes a single user's transaction behavior.
type UserProfile struct {
	UserID            string  `json:"user_id"`
	TotalTransactions int     `json:"total_transactions"`
	TotalVolume       float64 `json:"total_volume"`
	AvgAmount         float64 `json:"avg_amount"`
	MaxAmount         float64 `json:"max_amount"`
	AvgRisk           float64 `json:"avg_risk"`
	MaxRisk           float64 `json:"max_risk"`
	UniqueDevices     int     `json:"unique_devices"`
	UniqueIPs         int     `json:"unique_ips"`
	UniqueMerchants   int     `json:"unique_merchants"`
	FlaggedCount      int     `json:"flagged_count"`
}

// PerformanceSummary is the rolling scoring-performance report.
type PerformanceSummary struct {
	TotalTransactions   int     `json:"total_transactions"`
	FlaggedCount        int     `json:"flagged_count"`
	FlagRate            float64 `json:"flag_rate"`
	AvgLatencyMs        float64 `json:"avg_latency_ms"`
	AvgPropagationDepth float64 `json:"avg_propagation_depth"`
}
