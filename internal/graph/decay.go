package graph

import (
	"math"
	"time"
)

// Decay defaults: 0.5% erosion per day with a floor that keeps ever-risky
// entities from being fully forgotten.
const (
	DefaultDecayFactor = 0.995
	DefaultDecayFloor  = 0.01
)

// Decay applies exponential, age-weighted erosion to risk scores. Decay is
// lazy: the engine applies it to a node just before the node participates in
// scoring, so no background sweeper is needed.
type Decay struct {
	factor float64
	floor  float64
}

// NewDecay creates a Decay calculator. Out-of-range parameters fall back to
// the defaults.
func NewDecay(factor, floor float64) *Decay {
	if factor <= 0 || factor > 1 {
		factor = DefaultDecayFactor
	}

	if floor < 0 || floor >= 1 {
		floor = DefaultDecayFloor
	}

	return &Decay{factor: factor, floor: floor}
}

// Apply returns the risk after ageDays of decay.
//
// The floor only holds up entities that were already at or above it: a node
// that never accumulated risk stays where it is, and zero elapsed time is
// exactly the identity.
func (d *Decay) Apply(risk, ageDays float64) float64 {
	risk = clamp01(risk)

	if ageDays <= 0 {
		return risk
	}

	decayed := risk * math.Pow(d.factor, ageDays)
	if risk >= d.floor && decayed < d.floor {
		decayed = d.floor
	}

	return decayed
}

// ApplyNode decays the node's stored risk based on the time elapsed since
// prevSeen and writes the result back. It returns the decayed risk and the
// age in days. The caller holds the write lock via tx.
func (d *Decay) ApplyNode(tx *Tx, id string, prevSeen time.Time) (risk, ageDays float64) {
	n := tx.Node(id)
	if n == nil {
		return 0, 0
	}

	ageDays = tx.s.now().Sub(prevSeen).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	n.Risk = d.Apply(n.Risk, ageDays)

	return n.Risk, ageDays
}
