package models

import "time"

// Recommendation values returned with every score.
const (
	RecommendApprove   = "approve"
	RecommendReview    = "review"
	RecommendChallenge = "challenge"
)

// Risk categories derived from the final score.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// FlagThreshold is the final score at or above which a transaction is flagged.
const FlagThreshold = 0.6

// Breakdown is the numeric trail from base risk to final score.
type Breakdown struct {
	BaseRisk         float64 `json:"base_risk"`
	AfterPropagation float64 `json:"after_propagation"`
	AfterTimeDecay   float64 `json:"after_time_decay"`
	ClusterBoost     float64 `json:"cluster_boost"`
	Final            float64 `json:"final"`
}

// TriggeredRule describes one base-risk rule that fired for an event.
type TriggeredRule struct {
	Rule         string  `json:"rule"`
	Contribution float64 `json:"risk_contribution"`
	Description  string  `json:"description"`
}

// PropagatedNode is a neighbor whose risk was raised by propagation.
type PropagatedNode struct {
	Node       string  `json:"node"`
	Risk       float64 `json:"risk"`
	IsHighRisk bool    `json:"is_high_risk"`
}

// Explanation is the human-readable artifact accompanying every score.
type Explanation struct {
	Recommendation       string           `json:"recommendation"`
	RiskCategory         string           `json:"risk_category"`
	Reason               string           `json:"reason"`
	RulesTriggered       []TriggeredRule  `json:"rules_triggered"`
	PropagatedTo         []PropagatedNode `json:"propagated_to,omitempty"`
	CalculationBreakdown Breakdown        `json:"calculation_breakdown"`
}

// ClusteringInfo lists the suspicious topological patterns touching the event.
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
	DepthTruncated   bool           `json:"depth_truncated,omitempty"`
	TotalLatencyMs   float64        `json:"total_latency_ms"`
	Timestamp        time.Time      `json:"timestamp"`
	Cached           bool           `json:"cached"`
	Explanation      Explanation    `json:"explanation"`
	ClusteringInfo   ClusteringInfo `json:"clustering_info"`
}

// Flagged reports whether the final score crosses the flag threshold.
func (r *RiskResult) Flagged() bool {
	return r.RiskScore >= FlagThreshold
}
