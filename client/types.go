package client

import "time"

// Event is a transaction event submitted for scoring.
type Event struct {
	UserID            string  `json:"user_id"`
	DeviceID          string  `json:"device_id"`
	IPAddress         string  `json:"ip_address"`
	MerchantID        string  `json:"merchant_id"`
	CardID            string  `json:"card_id,omitempty"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// TriggeredRule is one base-risk heuristic that fired during scoring.
type TriggeredRule struct {
	Rule         string  `json:"rule"`
	Contribution float64 `json:"contribution"`
	Description  string  `json:"description"`
}

// PropagatedNode is a neighbor whose risk was updated by propagation.
type PropagatedNode struct {
	Node       string  `json:"node"`
	Risk       float64 `json:"risk"`
	IsHighRisk bool    `json:"is_high_risk"`
}

// Breakdown shows how the final score was assembled.
type Breakdown struct {
	BaseRisk         float64 `json:"base_risk"`
	AfterPropagation float64 `json:"after_propagation"`
	AfterTimeDecay   float64 `json:"after_time_decay"`
	ClusterBoost     float64 `json:"cluster_boost"`
	Final            float64 `json:"final"`
}

// Explanation is the human-readable artifact accompanying every score.
type Explanation struct {
	Recommendation       string           `json:"recommendation"`
	RiskCategory         string           `json:"risk_category"`
	Reason               string           `json:"reason"`
	RulesTriggered       []TriggeredRule  `json:"rules_triggered"`
	PropagatedTo         []PropagatedNode `json:"propagated_to"`
	CalculationBreakdown Breakdown        `json:"calculation_breakdown"`
}

// ClusteringInfo lists the suspicious structures detected near the event.
type ClusteringInfo struct {
	Rings          [][]string `json:"rings"`
	DenseSubgraphs [][]string `json:"dense_subgraphs"`
	StarPatterns   []string   `json:"star_patterns"`
}

// RiskResult is the full scoring response for one event.
type RiskResult struct {
	TransactionID    string         `json:"transaction_id"`
	RiskScore        float64        `json:"risk_score"`
	BaseRisk         float64        `json:"base_risk"`
	ClusteringBoost  float64        `json:"clustering_boost"`
	PropagationDepth int            `json:"propagation_depth"`
	DepthTruncated   bool           `json:"depth_truncated"`
	TotalLatencyMs   float64        `json:"total_latency_ms"`
	Timestamp        time.Time      `json:"timestamp"`
	Cached           bool           `json:"cached"`
	Explanation      Explanation    `json:"explanation"`
	ClusteringInfo   ClusteringInfo `json:"clustering_info"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Cache         string  `json:"cache"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatsResponse is the aggregate graph statistics payload.
type StatsResponse struct {
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
	NodesByType map[string]int `json:"nodes_by_type"`
}

// CacheStatsResponse is the cache statistics payload.
type CacheStatsResponse struct {
	Enabled     bool    `json:"enabled"`
	Keys        int64   `json:"keys"`
	MemoryBytes int64   `json:"memory_bytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
}

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
