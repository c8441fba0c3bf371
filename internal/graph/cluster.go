package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Clustering defaults.
const (
	DefaultRingMinSize    = 3
	DefaultRingMinAvgRisk = 0.6
	DefaultRingBoost      = 0.15
	DefaultDenseMinSize   = 4
	DefaultDenseRatio     = 1.5
	DefaultDenseBoost     = 0.10
	DefaultStarMinDegree  = 10
	DefaultStarBoost      = 0.10
	DefaultClusterHops    = 2
)

// DetectorConfig tunes the clustering detectors.
type DetectorConfig struct {
	RingMinSize    int
	RingMinAvgRisk float64
	RingBoost      float64
	DenseMinSize   int
	DenseRatio     float64
	DenseBoost     float64
	StarMinDegree  int
	StarBoost      float64
	Hops           int
}

// DefaultDetectorConfig returns the standard detector tuning.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		RingMinSize:    DefaultRingMinSize,
		RingMinAvgRisk: DefaultRingMinAvgRisk,
		RingBoost:      DefaultRingBoost,
		DenseMinSize:   DefaultDenseMinSize,
		DenseRatio:     DefaultDenseRatio,
		DenseBoost:     DefaultDenseBoost,
		StarMinDegree:  DefaultStarMinDegree,
		StarBoost:      DefaultStarBoost,
		Hops:           DefaultClusterHops,
	}
}

// Detector identifies suspicious topological patterns (rings, dense
// subgraphs, star hubs) in the induced subgraph around an event's nodes.
// Cost stays bounded because only the seeds' Hops-neighborhood is
// materialized.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a Detector with the given tuning; zero-valued fields
// fall back to the defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	def := DefaultDetectorConfig()

	if cfg.RingMinSize < 2 {
		cfg.RingMinSize = def.RingMinSize
	}

	if cfg.RingMinAvgRisk <= 0 {
		cfg.RingMinAvgRisk = def.RingMinAvgRisk
	}

	if cfg.RingBoost <= 0 {
		cfg.RingBoost = def.RingBoost
	}

	if cfg.DenseMinSize < 2 {
		cfg.DenseMinSize = def.DenseMinSize
	}

	if cfg.DenseRatio <= 0 {
		cfg.DenseRatio = def.DenseRatio
	}

	if cfg.DenseBoost <= 0 {
		cfg.DenseBoost = def.DenseBoost
	}

	if cfg.StarMinDegree < 2 {
		cfg.StarMinDegree = def.StarMinDegree
	}

	if cfg.StarBoost <= 0 {
		cfg.StarBoost = def.StarBoost
	}

	if cfg.Hops < 1 {
		cfg.Hops = def.Hops
	}

	return &Detector{cfg: cfg}
}

// Report is the outcome of one detection pass. Boosts carries the maximum
// applicable boost per node; pattern boosts are never summed.
type Report struct {
	Rings  [][]string
	Dense  [][]string
	Stars  []string
	Boosts map[string]float64
}

// subgraph is the induced Hops-neighborhood around the seeds, indexed for
// gonum's algorithms.
type subgraph struct {
	ids      []string         // sorted member IDs; position = gonum node ID
	index    map[string]int64 // member ID -> gonum node ID
	out      map[string][]string
	undirAdj map[string]map[string]bool
}

// Detect runs all three detectors over the induced subgraph around seeds
// and returns the membership lists plus per-node boosts. The caller holds
// at least the read lock via tx.
func (d *Detector) Detect(tx *Tx, seeds []string) *Report {
	rep := &Report{
		Rings:  [][]string{},
		Dense:  [][]string{},
		Stars:  []string{},
		Boosts: make(map[string]float64),
	}

	sg := d.induce(tx, seeds)
	if len(sg.ids) == 0 {
		return rep
	}

	dg := simple.NewDirectedGraph()
	for i := range sg.ids {
		dg.AddNode(simple.Node(i))
	}

	for src, targets := range sg.out {
		for _, dst := range targets {
			if src == dst {
				continue
			}

			dg.SetEdge(simple.Edge{F: simple.Node(sg.index[src]), T: simple.Node(sg.index[dst])})
		}
	}

	d.detectRings(tx, sg, dg, rep)
	d.detectDense(sg, rep)
	d.detectStars(sg, rep)

	return rep
}

// induce collects the union of the seeds' Hops-neighborhoods (following
// edges in both directions) and the edges among the collected nodes.
func (d *Detector) induce(tx *Tx, seeds []string) *subgraph {
	member := make(map[string]bool)
	var frontier []string

	for _, s := range seeds {
		if tx.Node(s) != nil && !member[s] {
			member[s] = true
			frontier = append(frontier, s)
		}
	}

	for hop := 0; hop < d.cfg.Hops && len(frontier) > 0; hop++ {
		var next []string

		for _, id := range frontier {
			for _, nb := range tx.Neighbors(id, Both) {
				if !member[nb.ID] {
					member[nb.ID] = true
					next = append(next, nb.ID)
				}
			}
		}

		frontier = next
	}

	sg := &subgraph{
		index:    make(map[string]int64, len(member)),
		out:      make(map[string][]string),
		undirAdj: make(map[string]map[string]bool),
	}

	for id := range member {
		sg.ids = append(sg.ids, id)
	}

	sort.Strings(sg.ids)

	for i, id := range sg.ids {
		sg.index[id] = int64(i)
	}

	for _, id := range sg.ids {
		for _, nb := range tx.Neighbors(id, Out) {
			if !member[nb.ID] || nb.ID == id {
				continue
			}

			sg.out[id] = append(sg.out[id], nb.ID)
			sg.link(id, nb.ID)
		}
	}

	return sg
}

func (sg *subgraph) link(a, b string) {
	if sg.undirAdj[a] == nil {
		sg.undirAdj[a] = make(map[string]bool)
	}

	if sg.undirAdj[b] == nil {
		sg.undirAdj[b] = make(map[string]bool)
	}

	sg.undirAdj[a][b] = true
	sg.undirAdj[b][a] = true
}

// undirected builds the undirected view of the subgraph for component
// analysis.
func (sg *subgraph) undirected() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := range sg.ids {
		ug.AddNode(simple.Node(i))
	}

	for src, targets := range sg.out {
		for _, dst := range targets {
			if src == dst {
				continue
			}

			ug.SetEdge(simple.Edge{F: simple.Node(sg.index[src]), T: simple.Node(sg.index[dst])})
		}
	}

	return ug
}

// detectRings finds coordinated-fraud rings two ways: strongly connected
// components of the directed subgraph (genuine directed cycles), and
// undirected cyclic components whose average risk clears the gate
// (shared-infrastructure rings, e.g. several users on one device and IP).
// Every member receives the ring boost once.
func (d *Detector) detectRings(tx *Tx, sg *subgraph, dg *simple.DirectedGraph, rep *Report) {
	seen := make(map[string]bool)

	record := func(members []string) {
		sort.Strings(members)

		key := members[0] + "|" + members[len(members)-1]
		for _, m := range members {
			key += "," + m
		}

		if seen[key] {
			return
		}

		seen[key] = true
		rep.Rings = append(rep.Rings, members)

		for _, m := range members {
			rep.bump(m, d.cfg.RingBoost)
		}
	}

	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < d.cfg.RingMinSize {
			continue
		}

		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, sg.ids[n.ID()])
		}

		record(members)
	}

	for _, comp := range topo.ConnectedComponents(sg.undirected()) {
		if len(comp) < d.cfg.RingMinSize {
			continue
		}

		members := make([]string, 0, len(comp))
		undirEdges := 0
		riskSum := 0.0

		for _, n := range comp {
			id := sg.ids[n.ID()]
			members = append(members, id)
			undirEdges += len(sg.undirAdj[id])
			riskSum += tx.Risk(id)
		}

		undirEdges /= 2

		// A connected component holds a cycle exactly when it has at
		// least as many undirected edges as nodes.
		if undirEdges < len(members) {
			continue
		}

		if riskSum/float64(len(members)) < d.cfg.RingMinAvgRisk {
			continue
		}

		record(members)
	}

	sort.Slice(rep.Rings, func(i, j int) bool { return rep.Rings[i][0] < rep.Rings[j][0] })
}

// detectDense flags connected components whose directed edge/node ratio
// exceeds the threshold. Every member receives the dense boost.
func (d *Detector) detectDense(sg *subgraph, rep *Report) {
	for _, comp := range topo.ConnectedComponents(sg.undirected()) {
		if len(comp) < d.cfg.DenseMinSize {
			continue
		}

		members := make([]string, 0, len(comp))
		for _, n := range comp {
			members = append(members, sg.ids[n.ID()])
		}

		sort.Strings(members)

		inComp := make(map[string]bool, len(members))
		for _, m := range members {
			inComp[m] = true
		}

		edges := 0

		for _, m := range members {
			for _, t := range sg.out[m] {
				if inComp[t] {
					edges++
				}
			}
		}

		if float64(edges)/float64(len(members)) < d.cfg.DenseRatio {
			continue
		}

		rep.Dense = append(rep.Dense, members)

		for _, m := range members {
			rep.bump(m, d.cfg.DenseBoost)
		}
	}

	sort.Slice(rep.Dense, func(i, j int) bool { return rep.Dense[i][0] < rep.Dense[j][0] })
}

// detectStars flags hub nodes whose degree exceeds the threshold and whose
// spokes are otherwise unconnected. Only the hub is boosted.
func (d *Detector) detectStars(sg *subgraph, rep *Report) {
	for _, hub := range sg.ids {
		spokes := sg.undirAdj[hub]
		if len(spokes) <= d.cfg.StarMinDegree {
			continue
		}

		connected := false

	scan:
		for a := range spokes {
			for b := range sg.undirAdj[a] {
				if b != hub && spokes[b] {
					connected = true

					break scan
				}
			}
		}

		if connected {
			continue
		}

		rep.Stars = append(rep.Stars, hub)
		rep.bump(hub, d.cfg.StarBoost)
	}

	sort.Strings(rep.Stars)
}

// bump records a boost for the node, keeping only the maximum applicable.
func (r *Report) bump(id string, boost float64) {
	if boost > r.Boosts[id] {
		r.Boosts[id] = boost
	}
}
