// Package graph provides the in-memory entity-relationship graph and the
// risk algorithms that run over it: lazy time decay, bounded-depth risk
// propagation, and fraud-ring clustering detection.
//
// The graph is flat tables keyed by node ID with dual adjacency indexes, so
// forward and reverse neighborhood queries are both O(deg). One
// readers-writer lock guards the whole structure; the engine's hot path
// mutates through a Tx obtained from Store.Update, everything else reads
// through Store.View or the copying accessors.
package graph

import (
	"strings"
	"time"
)

// NodeType tags an entity with its kind.
type NodeType string

// The entity types known to the graph.
const (
	TypeUser     NodeType = "user"
	TypeDevice   NodeType = "device"
	TypeIP       NodeType = "ip"
	TypeMerchant NodeType = "merchant"
	TypeCard     NodeType = "card"

	// TypeUnknown is assigned to endpoints created implicitly by an edge
	// upsert whose ID carries no recognizable type prefix.
	TypeUnknown NodeType = "unknown"
)

// NodeID returns the namespaced graph identifier for an entity, e.g.
// NodeID(TypeUser, "alice") == "user_alice". Namespacing makes node
// identity (type, id) while keeping a single flat key.
func NodeID(t NodeType, raw string) string {
	return string(t) + "_" + raw
}

// TypeFromID recovers the node type from a namespaced identifier.
func TypeFromID(id string) NodeType {
	prefix, _, ok := strings.Cut(id, "_")
	if !ok {
		return TypeUnknown
	}

	switch t := NodeType(prefix); t {
	case TypeUser, TypeDevice, TypeIP, TypeMerchant, TypeCard:
		return t
	default:
		return TypeUnknown
	}
}

// Node is a vertex in the entity graph.
type Node struct {
	ID           string    `json:"id"`
	Type         NodeType  `json:"type"`
	Risk         float64   `json:"risk_score"`
	Interactions int       `json:"interaction_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	Weight       float64   `json:"weight"`
	Interactions int       `json:"interaction_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// Direction selects which incident edges a neighborhood query follows.
type Direction int

// Neighborhood directions.
const (
	Out Direction = iota
	In
	Both
)

// Neighbor pairs a neighboring node ID with the connecting edge attributes.
type Neighbor struct {
	ID   string
	Edge Edge
}

// Snapshot holds cheap aggregate statistics about the graph.
type Snapshot struct {
	Nodes       int              `json:"nodes"`
	Edges       int              `json:"edges"`
	NodesByType map[NodeType]int `json:"nodes_by_type"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
