// Package risk computes per-event risk: heuristic base scoring, the
// orchestrating engine, and score explanations.
package risk

import (
	"fmt"

	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/models"
)

// Base-risk rule contributions.
const (
	HighAmountThreshold     = 1000.0
	HighAmountContribution  = 0.30
	NewDeviceContribution   = 0.20
	NewIPContribution       = 0.20
	NewMerchantContribution = 0.10
)

// RuleContext carries what a rule may consult: the event itself and the
// graph state as it was before this event's mutations were applied.
type RuleContext struct {
	Event models.Event

	// EdgeExists reports directed edge presence at evaluation time.
	EdgeExists func(src, dst string) bool
}

// Rule is a single base-risk heuristic. Implementations must be pure reads;
// they run under the graph's write lock.
type Rule interface {
	// Evaluate returns the rule's finding and whether it fired.
	Evaluate(rc *RuleContext) (models.TriggeredRule, bool)
}

// Calculator runs a pluggable rule set and sums the contributions, clamped
// to 1.0.
type Calculator struct {
	rules []Rule
}

// NewCalculator creates a Calculator with the given rules, or the default
// rule set when none are provided.
func NewCalculator(rules ...Rule) *Calculator {
	if len(rules) == 0 {
		rules = []Rule{
			HighAmountRule{Threshold: HighAmountThreshold, Contribution: HighAmountContribution},
			NewDeviceRule{Contribution: NewDeviceContribution},
			NewIPRule{Contribution: NewIPContribution},
			NewMerchantRule{Contribution: NewMerchantContribution},
		}
	}

	return &Calculator{rules: rules}
}

// Calculate evaluates every rule and returns the clamped total plus the
// findings that fired.
func (c *Calculator) Calculate(rc *RuleContext) (float64, []models.TriggeredRule) {
	total := 0.0
	findings := make([]models.TriggeredRule, 0, len(c.rules))

	for _, r := range c.rules {
		f, fired := r.Evaluate(rc)
		if !fired {
			continue
		}

		total += f.Contribution
		findings = append(findings, f)
	}

	if total > 1 {
		total = 1
	}

	return total, findings
}

// HighAmountRule fires when the transaction amount exceeds the threshold.
type HighAmountRule struct {
	Threshold    float64
	Contribution float64
}

// Evaluate implements Rule.
func (r HighAmountRule) Evaluate(rc *RuleContext) (models.TriggeredRule, bool) {
	if rc.Event.TransactionAmount <= r.Threshold {
		return models.TriggeredRule{}, false
	}

	return models.TriggeredRule{
		Rule:         "High Transaction Amount",
		Contribution: r.Contribution,
		Description:  fmt.Sprintf("transaction amount $%.2f exceeds threshold", rc.Event.TransactionAmount),
	}, true
}

// NewDeviceRule fires when the user has never been seen on this device.
type NewDeviceRule struct {
	Contribution float64
}

// Evaluate implements Rule.
func (r NewDeviceRule) Evaluate(rc *RuleContext) (models.TriggeredRule, bool) {
	user := graph.NodeID(graph.TypeUser, rc.Event.UserID)
	device := graph.NodeID(graph.TypeDevice, rc.Event.DeviceID)

	if rc.EdgeExists(user, device) {
		return models.TriggeredRule{}, false
	}

	return models.TriggeredRule{
		Rule:         "New Device",
		Contribution: r.Contribution,
		Description:  fmt.Sprintf("device %q not seen before for this user", rc.Event.DeviceID),
	}, true
}

// NewIPRule fires when the user has never been seen on this IP address.
type NewIPRule struct {
	Contribution float64
}

// Evaluate implements Rule.
func (r NewIPRule) Evaluate(rc *RuleContext) (models.TriggeredRule, bool) {
	user := graph.NodeID(graph.TypeUser, rc.Event.UserID)
	ip := graph.NodeID(graph.TypeIP, rc.Event.IPAddress)

	if rc.EdgeExists(user, ip) {
		return models.TriggeredRule{}, false
	}

	return models.TriggeredRule{
		Rule:         "New IP Address",
		Contribution: r.Contribution,
		Description:  fmt.Sprintf("ip %q not seen before for this user", rc.Event.IPAddress),
	}, true
}

// NewMerchantRule fires when neither the user nor the device has an edge to
// the merchant.
type NewMerchantRule struct {
	Contribution float64
}

// Evaluate implements Rule.
func (r NewMerchantRule) Evaluate(rc *RuleContext) (models.TriggeredRule, bool) {
	user := graph.NodeID(graph.TypeUser, rc.Event.UserID)
	device := graph.NodeID(graph.TypeDevice, rc.Event.DeviceID)
	merchant := graph.NodeID(graph.TypeMerchant, rc.Event.MerchantID)

	if rc.EdgeExists(user, merchant) || rc.EdgeExists(device, merchant) {
		return models.TriggeredRule{}, false
	}

	return models.TriggeredRule{
		Rule:         "New Merchant",
		Contribution: r.Contribution,
		Description:  fmt.Sprintf("merchant %q not previously used", rc.Event.MerchantID),
	}, true
}
