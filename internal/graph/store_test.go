package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns a Store whose clock starts at base and can be advanced
// by tests.
func fixedClock(s *Store, base time.Time) *time.Time {
	now := base
	s.now = func() time.Time { return now }

	return &now
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestUpsertNode_Create(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fixedClock(s, testEpoch)

	s.Update(func(tx *Tx) {
		n, prevSeen, created := tx.UpsertNode("user_u1", TypeUser, 0.3)

		require.True(t, created)
		assert.Equal(t, "user_u1", n.ID)
		assert.Equal(t, TypeUser, n.Type)
		assert.Equal(t, 0.3, n.Risk)
		assert.Equal(t, 1, n.Interactions)
		assert.Equal(t, testEpoch, n.FirstSeen)
		assert.Equal(t, testEpoch, n.LastSeen)
		assert.Equal(t, testEpoch, prevSeen)
	})
}

func TestUpsertNode_Reobserve(t *testing.T) {
	t.Parallel()

	s := NewStore()
	now := fixedClock(s, testEpoch)

	s.Update(func(tx *Tx) {
		tx.UpsertNode("user_u1", TypeUser, 0.5)
	})

	*now = testEpoch.Add(time.Hour)

	s.Update(func(tx *Tx) {
		n, prevSeen, created := tx.UpsertNode("user_u1", TypeUser, 0.2)

		require.False(t, created)
		assert.Equal(t, testEpoch, prevSeen)
		assert.Equal(t, testEpoch.Add(time.Hour), n.LastSeen)
		assert.Equal(t, 2, n.Interactions)

		// A lower initial risk never pulls the node down.
		assert.Equal(t, 0.5, n.Risk)

		_, _, _ = tx.UpsertNode("user_u1", TypeUser, 0.9)
		assert.Equal(t, 0.9, tx.Risk("user_u1"))
	})
}

func TestUpsertNode_ClampsRisk(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		n, _, _ := tx.UpsertNode("user_u1", TypeUser, 1.7)
		assert.Equal(t, 1.0, n.Risk)
	})
}

func TestUpsertEdge_CreatesEndpoints(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		e := tx.UpsertEdge("user_u1", "device_d1", 0.8)

		assert.Equal(t, 0.8, e.Weight)
		assert.Equal(t, 1, e.Interactions)
		require.NotNil(t, tx.Node("user_u1"))
		require.NotNil(t, tx.Node("device_d1"))
		assert.Equal(t, TypeUser, tx.Node("user_u1").Type)
		assert.Equal(t, TypeDevice, tx.Node("device_d1").Type)
		assert.True(t, tx.EdgeExists("user_u1", "device_d1"))
		assert.False(t, tx.EdgeExists("device_d1", "user_u1"))
	})

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Nodes)
	assert.Equal(t, 1, snap.Edges)
}

func TestUpsertEdge_BlendsWeight(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		tx.UpsertEdge("user_u1", "device_d1", 0.8)
		e := tx.UpsertEdge("user_u1", "device_d1", 0.4)

		// (0.8*1 + 0.4) / 2
		assert.InDelta(t, 0.6, e.Weight, 1e-9)
		assert.Equal(t, 2, e.Interactions)
	})

	// Still one edge.
	assert.Equal(t, 1, s.Snapshot().Edges)
}

func TestNeighbors_SortedAndDirectional(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		tx.UpsertEdge("user_u1", "ip_b", 0.7)
		tx.UpsertEdge("user_u1", "device_a", 0.8)
		tx.UpsertEdge("merchant_m", "user_u1", 0.5)

		out := tx.Neighbors("user_u1", Out)
		require.Len(t, out, 2)
		assert.Equal(t, "device_a", out[0].ID)
		assert.Equal(t, "ip_b", out[1].ID)

		in := tx.Neighbors("user_u1", In)
		require.Len(t, in, 1)
		assert.Equal(t, "merchant_m", in[0].ID)

		both := tx.Neighbors("user_u1", Both)
		assert.Len(t, both, 3)
	})
}

func TestSetRisk(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		tx.UpsertNode("user_u1", TypeUser, 0.2)
		tx.SetRisk("user_u1", 1.4)
		assert.Equal(t, 1.0, tx.Risk("user_u1"))

		tx.SetRisk("user_u1", -0.1)
		assert.Equal(t, 0.0, tx.Risk("user_u1"))

		// Unknown ids are ignored.
		tx.SetRisk("ghost", 0.5)
		assert.Equal(t, 0.0, tx.Risk("ghost"))
	})
}

func TestSnapshot_CountsByType(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		tx.UpsertNode("user_u1", TypeUser, 0)
		tx.UpsertNode("user_u2", TypeUser, 0)
		tx.UpsertNode("device_d1", TypeDevice, 0)
		tx.UpsertEdge("user_u1", "device_d1", 0.8)
	})

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Nodes)
	assert.Equal(t, 1, snap.Edges)
	assert.Equal(t, 2, snap.NodesByType[TypeUser])
	assert.Equal(t, 1, snap.NodesByType[TypeDevice])
}

func TestGetNode_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()

	s.Update(func(tx *Tx) {
		tx.UpsertNode("user_u1", TypeUser, 0.4)
	})

	n, ok := s.GetNode("user_u1")
	require.True(t, ok)

	n.Risk = 0.9

	fresh, _ := s.GetNode("user_u1")
	assert.Equal(t, 0.4, fresh.Risk)

	_, ok = s.GetNode("missing")
	assert.False(t, ok)
}

func TestPrune_EvictsIdleNodesAndEdges(t *testing.T) {
	t.Parallel()

	s := NewStore()
	now := fixedClock(s, testEpoch)

	s.Update(func(tx *Tx) {
		tx.UpsertEdge("user_old", "device_old", 0.8)
	})

	*now = testEpoch.Add(48 * time.Hour)

	s.Update(func(tx *Tx) {
		tx.UpsertEdge("user_new", "device_new", 0.8)
	})

	removed := s.Prune(24 * time.Hour)
	assert.Equal(t, 2, removed)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Nodes)
	assert.Equal(t, 1, snap.Edges)

	_, ok := s.GetNode("user_old")
	assert.False(t, ok)

	_, ok = s.GetNode("user_new")
	assert.True(t, ok)
}

func TestTypeFromID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeUser, TypeFromID("user_alice"))
	assert.Equal(t, TypeCard, TypeFromID("card_c9"))
	assert.Equal(t, TypeUnknown, TypeFromID("widget_w1"))
	assert.Equal(t, TypeUnknown, TypeFromID("noprefix"))
}
