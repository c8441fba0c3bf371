package graph

import (
	"sort"
	"sync"
	"time"
)

// Store is the in-memory directed multi-typed entity graph.
//
// All state is guarded by a single readers-writer lock. Mutation happens
// under the write lock through a Tx (see Update); reads take the read lock.
// Nothing inside the lock may block or suspend.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	out   map[string]map[string]*Edge // source -> target -> edge
	in    map[string]map[string]*Edge // target -> source -> same edge
	edges int

	// now is swappable so tests can control time.
	now func() time.Time
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*Node),
		out:   make(map[string]map[string]*Edge),
		in:    make(map[string]map[string]*Edge),
		now:   time.Now,
	}
}

// Tx is a handle to the graph while the write lock is held. It must not
// escape the Update callback.
type Tx struct {
	s *Store
}

// Update runs fn under the graph's exclusive write lock.
func (s *Store) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&Tx{s: s})
}

// View runs fn under the graph's shared read lock. The Tx passed to fn must
// only be used for reads.
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(&Tx{s: s})
}

// UpsertNode creates the node if absent, otherwise refreshes last_seen and
// increments the interaction count. A higher existing risk is never
// overwritten by a lower initial value. It returns the node, the last-seen
// timestamp prior to this observation, and whether the node was created.
func (tx *Tx) UpsertNode(id string, t NodeType, initialRisk float64) (n *Node, prevSeen time.Time, created bool) {
	now := tx.s.now()

	if n, ok := tx.s.nodes[id]; ok {
		prevSeen = n.LastSeen
		n.LastSeen = now
		n.Interactions++

		if r := clamp01(initialRisk); r > n.Risk {
			n.Risk = r
		}

		return n, prevSeen, false
	}

	n = &Node{
		ID:           id,
		Type:         t,
		Risk:         clamp01(initialRisk),
		Interactions: 1,
		FirstSeen:    now,
		LastSeen:     now,
	}
	tx.s.nodes[id] = n

	return n, now, true
}

// UpsertEdge creates the directed edge if absent, creating missing endpoints
// as a side effect. On re-observation it increments the interaction count,
// refreshes last_seen, and blends the stored weight toward the new weight,
// weighted by interaction count so established edges move slowly.
func (tx *Tx) UpsertEdge(src, dst string, weight float64) *Edge {
	now := tx.s.now()
	weight = clamp01(weight)

	if _, ok := tx.s.nodes[src]; !ok {
		tx.UpsertNode(src, TypeFromID(src), 0)
	}

	if _, ok := tx.s.nodes[dst]; !ok {
		tx.UpsertNode(dst, TypeFromID(dst), 0)
	}

	if e, ok := tx.s.out[src][dst]; ok {
		e.Weight = clamp01((e.Weight*float64(e.Interactions) + weight) / float64(e.Interactions+1))
		e.Interactions++
		e.LastSeen = now

		return e
	}

	e := &Edge{
		Source:       src,
		Target:       dst,
		Weight:       weight,
		Interactions: 1,
		FirstSeen:    now,
		LastSeen:     now,
	}

	if tx.s.out[src] == nil {
		tx.s.out[src] = make(map[string]*Edge)
	}

	if tx.s.in[dst] == nil {
		tx.s.in[dst] = make(map[string]*Edge)
	}

	tx.s.out[src][dst] = e
	tx.s.in[dst][src] = e
	tx.s.edges++

	return e
}

// EdgeExists reports whether the directed edge src -> dst is present.
func (tx *Tx) EdgeExists(src, dst string) bool {
	_, ok := tx.s.out[src][dst]

	return ok
}

// Node returns the live node for id, or nil if absent.
func (tx *Tx) Node(id string) *Node {
	return tx.s.nodes[id]
}

// Risk returns the current risk score for id, or 0 if the node is absent.
func (tx *Tx) Risk(id string) float64 {
	if n, ok := tx.s.nodes[id]; ok {
		return n.Risk
	}

	return 0
}

// SetRisk sets the node's risk score, clamped to [0,1], and refreshes its
// last_seen timestamp. Unknown ids are ignored.
func (tx *Tx) SetRisk(id string, risk float64) {
	n, ok := tx.s.nodes[id]
	if !ok {
		return
	}

	n.Risk = clamp01(risk)
	n.LastSeen = tx.s.now()
}

// Neighbors returns the neighbors of id in the given direction, sorted by
// ascending neighbor ID for reproducible traversal order.
func (tx *Tx) Neighbors(id string, dir Direction) []Neighbor {
	var result []Neighbor

	if dir == Out || dir == Both {
		for target, e := range tx.s.out[id] {
			result = append(result, Neighbor{ID: target, Edge: *e})
		}
	}

	if dir == In || dir == Both {
		for source, e := range tx.s.in[id] {
			result = append(result, Neighbor{ID: source, Edge: *e})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

// snapshotLocked computes aggregate statistics; callers hold a lock.
func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Nodes:       len(s.nodes),
		Edges:       s.edges,
		NodesByType: make(map[NodeType]int),
	}

	for _, n := range s.nodes {
		snap.NodesByType[n.Type]++
	}

	return snap
}

// Snapshot returns cheap aggregate statistics under the read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

// GetNode returns a copy of the node, for callers outside a View/Update.
func (s *Store) GetNode(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}

	return *n, true
}

// Prune removes nodes whose last_seen is older than now-horizon, cascading
// to their incident edges. It returns the number of nodes removed. Prune is
// an out-of-band garbage collection pass, never part of the scoring path.
func (s *Store) Prune(horizon time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-horizon)
	removed := 0

	for id, n := range s.nodes {
		if !n.LastSeen.Before(cutoff) {
			continue
		}

		for target := range s.out[id] {
			delete(s.in[target], id)
			s.edges--
		}

		for source := range s.in[id] {
			delete(s.out[source], id)
			s.edges--
		}

		delete(s.out, id)
		delete(s.in, id)
		delete(s.nodes, id)
		removed++
	}

	return removed
}
