package graph

import "context"

// Propagation defaults.
const (
	DefaultAlpha     = 0.5
	DefaultMaxDepth  = 2
	DefaultThreshold = 0.1
)

// Propagator spreads a source node's risk to its bounded-depth out-neighborhood.
//
// For each edge (u -> v) expanded at depth d < MaxDepth:
//
//	risk(v) <- min(risk(v) + Alpha * risk(u) * weight(u,v), 1)
//
// A per-call visited set guarantees each node is updated at most once, and
// neighbor enumeration is ordered by ascending node ID so results are
// reproducible. Reverse edges are never followed in the hot path.
type Propagator struct {
	alpha     float64
	maxDepth  int
	threshold float64
}

// NewPropagator creates a Propagator; out-of-range parameters fall back to
// the defaults.
func NewPropagator(alpha float64, maxDepth int, threshold float64) *Propagator {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}

	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	return &Propagator{alpha: alpha, maxDepth: maxDepth, threshold: threshold}
}

// Result is the outcome of one propagation call.
type Result struct {
	// Updates maps node ID to its new risk score, including the source.
	Updates map[string]float64
	// Depth is the deepest BFS level actually reached.
	Depth int
	// Truncated is set when the context deadline cut the traversal short.
	// Already-applied updates are kept; they reflect real observations.
	Truncated bool
}

// Propagate sets the source's risk to baseRisk and diffuses it through
// outgoing edges up to the configured depth. Mutations happen in place via
// tx; the caller holds the graph's write lock. The traversal is CPU-bound
// and only consults ctx between expansions.
func (p *Propagator) Propagate(ctx context.Context, tx *Tx, sourceID string, baseRisk float64) Result {
	baseRisk = clamp01(baseRisk)
	tx.SetRisk(sourceID, baseRisk)

	res := Result{Updates: map[string]float64{sourceID: baseRisk}}

	// Below the threshold the source keeps its base risk but nothing spreads.
	if baseRisk < p.threshold {
		return res
	}

	visited := map[string]bool{sourceID: true}
	frontier := []string{sourceID}

	for depth := 0; depth < p.maxDepth && len(frontier) > 0; depth++ {
		if ctx.Err() != nil {
			res.Truncated = true

			return res
		}

		var next []string

		for _, u := range frontier {
			uRisk := tx.Risk(u)

			for _, nb := range tx.Neighbors(u, Out) {
				if visited[nb.ID] {
					continue
				}

				visited[nb.ID] = true

				delta := p.alpha * uRisk * nb.Edge.Weight
				newRisk := clamp01(tx.Risk(nb.ID) + delta)
				tx.SetRisk(nb.ID, newRisk)
				res.Updates[nb.ID] = newRisk

				next = append(next, nb.ID)
			}
		}

		if len(next) > 0 {
			res.Depth = depth + 1
		}

		frontier = next
	}

	return res
}
