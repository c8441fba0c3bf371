package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/models"
)

// topPropagated caps how many propagated neighbors the explanation lists.
const topPropagated = 5

// Explainer assembles the human-readable artifact accompanying every score.
// It does no graph work of its own; all inputs come from the scoring pass.
type Explainer struct{}

// ExplainInput gathers everything the explainer needs.
type ExplainInput struct {
	SourceID    string
	Findings    []models.TriggeredRule
	Breakdown   models.Breakdown
	Propagation graph.Result
	Clusters    *graph.Report
}

// Explain builds the explanation for one scored event.
func (Explainer) Explain(in ExplainInput) models.Explanation {
	final := in.Breakdown.Final

	return models.Explanation{
		Recommendation:       Recommend(final),
		RiskCategory:         Categorize(final),
		Reason:               reason(in),
		RulesTriggered:       in.Findings,
		PropagatedTo:         propagatedTo(in),
		CalculationBreakdown: in.Breakdown,
	}
}

// Recommend maps a final score to an action.
func Recommend(score float64) string {
	switch {
	case score < 0.3:
		return models.RecommendApprove
	case score < 0.6:
		return models.RecommendReview
	default:
		return models.RecommendChallenge
	}
}

// Categorize maps a final score to a risk category.
func Categorize(score float64) string {
	switch {
	case score < 0.3:
		return models.RiskLow
	case score < 0.6:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// reason names the top contributing factors in a short phrase.
func reason(in ExplainInput) string {
	var parts []string

	for _, f := range in.Findings {
		parts = append(parts, f.Rule)
	}

	if in.Clusters != nil {
		if len(in.Clusters.Rings) > 0 {
			parts = append(parts, "fraud ring membership")
		}

		if len(in.Clusters.Dense) > 0 {
			parts = append(parts, "dense fraud cluster")
		}

		if len(in.Clusters.Stars) > 0 {
			parts = append(parts, "star pattern hub")
		}
	}

	if len(in.Propagation.Updates) > 1 {
		parts = append(parts, fmt.Sprintf("risk spread to %d neighbors", len(in.Propagation.Updates)-1))
	}

	if len(parts) == 0 {
		return "no risk factors detected"
	}

	return strings.Join(parts, "; ")
}

// propagatedTo lists the highest-impact propagated neighbors, strongest first.
func propagatedTo(in ExplainInput) []models.PropagatedNode {
	nodes := make([]models.PropagatedNode, 0, len(in.Propagation.Updates))

	for id, risk := range in.Propagation.Updates {
		if id == in.SourceID {
			continue
		}

		nodes = append(nodes, models.PropagatedNode{
			Node:       id,
			Risk:       risk,
			IsHighRisk: risk >= models.FlagThreshold,
		})
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Risk != nodes[j].Risk {
			return nodes[i].Risk > nodes[j].Risk
		}

		return nodes[i].Node < nodes[j].Node
	})

	if len(nodes) > topPropagated {
		nodes = nodes[:topPropagated]
	}

	return nodes
}
