package risk_test

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/models"
	"github.com/riskmesh/riskmesh/internal/risk"
)

// fakeCache is an in-memory ResultCache recording invalidations.
type fakeCache struct {
	mu          sync.Mutex
	results     map[string]*models.RiskResult
	userRisk    map[string]float64
	entities    map[string]float64
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		results:  make(map[string]*models.RiskResult),
		userRisk: make(map[string]float64),
		entities: make(map[string]float64),
	}
}

func (f *fakeCache) GetResult(_ context.Context, principal, fp string) (*models.RiskResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.results[principal+":"+fp]
	if !ok {
		return nil, false
	}

	cp := *r

	return &cp, true
}

func (f *fakeCache) SetResult(_ context.Context, principal, fp string, r *models.RiskResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *r
	f.results[principal+":"+fp] = &cp
}

func (f *fakeCache) SetUserRisk(_ context.Context, userID string, risk float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.userRisk[userID] = risk
}

func (f *fakeCache) SetEntity(_ context.Context, entityType, entityID string, risk float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entities[entityType+":"+entityID] = risk
}

func (f *fakeCache) InvalidateUser(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.invalidated = append(f.invalidated, userID)
}

// noopCache never hits, so every event is scored fresh.
type noopCache struct{}

func (noopCache) GetResult(context.Context, string, string) (*models.RiskResult, bool) {
	return nil, false
}
func (noopCache) SetResult(context.Context, string, string, *models.RiskResult) {}
func (noopCache) SetUserRisk(context.Context, string, float64)                  {}
func (noopCache) SetEntity(context.Context, string, string, float64)            {}
func (noopCache) InvalidateUser(context.Context, string)                        {}

// fakeSink captures enqueued transaction rows.
type fakeSink struct {
	mu   sync.Mutex
	rows []*models.Transaction
}

func (f *fakeSink) Enqueue(tx *models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rows = append(f.rows, tx)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.rows)
}

func (f *fakeSink) last() *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.rows) == 0 {
		return nil
	}

	return f.rows[len(f.rows)-1]
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	return l
}

func newTestEngine(cache risk.ResultCache, sink risk.Recorder) (*risk.Engine, *graph.Store) {
	store := graph.NewStore()
	engine := risk.NewEngine(
		store,
		graph.NewDecay(graph.DefaultDecayFactor, graph.DefaultDecayFloor),
		graph.NewPropagator(graph.DefaultAlpha, graph.DefaultMaxDepth, graph.DefaultThreshold),
		graph.NewDetector(graph.DefaultDetectorConfig()),
		risk.NewCalculator(),
		cache,
		sink,
		quietLogger(),
	)

	return engine, store
}

func event(user, device, ip, merchant string, amount float64) models.Event {
	return models.Event{
		UserID:            user,
		DeviceID:          device,
		IPAddress:         ip,
		MerchantID:        merchant,
		TransactionAmount: amount,
	}
}

func TestProcess_FirstEventScoresAllNewEntityRules(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	engine, store := newTestEngine(noopCache{}, sink)

	res, err := engine.Process(context.Background(), "acme", event("u1", "d1", "10.0.0.1", "m1", 250))
	require.NoError(t, err)

	// New device + new IP + new merchant.
	assert.InDelta(t, 0.5, res.BaseRisk, 1e-9)
	assert.InDelta(t, 0.5, res.RiskScore, 1e-9)
	assert.Zero(t, res.ClusteringBoost)
	assert.Equal(t, 1, res.PropagationDepth)
	assert.False(t, res.DepthTruncated)
	assert.False(t, res.Cached)
	assert.NotEmpty(t, res.TransactionID)

	assert.Equal(t, models.RecommendReview, res.Explanation.Recommendation)
	assert.Equal(t, models.RiskMedium, res.Explanation.RiskCategory)
	assert.Len(t, res.Explanation.RulesTriggered, 3)
	assert.NotEmpty(t, res.Explanation.PropagatedTo)

	// Risk reached the device through the user->device edge.
	dev, ok := store.GetNode("device_d1")
	require.True(t, ok)
	assert.InDelta(t, 0.5*0.5*0.8, dev.Risk, 1e-9)

	// One durable row with the same transaction ID.
	require.Equal(t, 1, sink.count())
	row := sink.last()
	assert.Equal(t, res.TransactionID, row.ID)
	assert.Equal(t, "u1", row.UserID)
	assert.InDelta(t, res.RiskScore, row.RiskScore, 1e-9)
}

func TestProcess_HighAmountIsFlagged(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(noopCache{}, &fakeSink{})

	res, err := engine.Process(context.Background(), "acme", event("u1", "d1", "10.0.0.1", "m1", 1500))
	require.NoError(t, err)

	assert.InDelta(t, 0.8, res.BaseRisk, 1e-9)
	assert.True(t, res.Flagged())
	assert.Equal(t, models.RecommendChallenge, res.Explanation.Recommendation)
	assert.Equal(t, models.RiskHigh, res.Explanation.RiskCategory)
}

func TestProcess_RepeatEventTriggersNothing(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(noopCache{}, &fakeSink{})
	ev := event("u1", "d1", "10.0.0.1", "m1", 250)

	_, err := engine.Process(context.Background(), "acme", ev)
	require.NoError(t, err)

	res, err := engine.Process(context.Background(), "acme", ev)
	require.NoError(t, err)

	// All edges exist now; the base risk and fresh score are zero.
	assert.Zero(t, res.BaseRisk)
	assert.Zero(t, res.RiskScore)
	assert.Empty(t, res.Explanation.RulesTriggered)
	assert.Equal(t, models.RecommendApprove, res.Explanation.Recommendation)
}

func TestProcess_CardEntityJoinsTheGraph(t *testing.T) {
	t.Parallel()

	engine, store := newTestEngine(noopCache{}, &fakeSink{})

	ev := event("u1", "d1", "10.0.0.1", "m1", 250)
	ev.CardID = "c1"

	_, err := engine.Process(context.Background(), "acme", ev)
	require.NoError(t, err)

	card, ok := store.GetNode("card_c1")
	require.True(t, ok)
	assert.Equal(t, graph.TypeCard, card.Type)

	store.View(func(tx *graph.Tx) {
		assert.True(t, tx.EdgeExists("user_u1", "card_c1"))
		assert.True(t, tx.EdgeExists("card_c1", "merchant_m1"))
	})
}

func TestProcess_CacheHitSkipsScoring(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	sink := &fakeSink{}
	engine, _ := newTestEngine(cache, sink)
	ev := event("u1", "d1", "10.0.0.1", "m1", 250)

	first, err := engine.Process(context.Background(), "acme", ev)
	require.NoError(t, err)
	require.Equal(t, 1, sink.count())

	second, err := engine.Process(context.Background(), "acme", ev)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, first.RiskScore, second.RiskScore)

	// No second durable row, no graph mutation.
	assert.Equal(t, 1, sink.count())
}

func TestProcess_CacheIsPerPrincipal(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	engine, _ := newTestEngine(cache, &fakeSink{})
	ev := event("u1", "d1", "10.0.0.1", "m1", 250)

	_, err := engine.Process(context.Background(), "acme", ev)
	require.NoError(t, err)

	res, err := engine.Process(context.Background(), "globex", ev)
	require.NoError(t, err)

	assert.False(t, res.Cached)
}

func TestProcess_InvalidEvent(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(noopCache{}, &fakeSink{})

	_, err := engine.Process(context.Background(), "acme", event("", "d1", "10.0.0.1", "m1", 250))
	assert.ErrorIs(t, err, models.ErrMissingUserID)

	_, err = engine.Process(context.Background(), "acme", event("u1", "d1", "10.0.0.1", "m1", -5))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestProcess_SharedInfrastructureFormsRing(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(noopCache{}, &fakeSink{})

	// Three users hammering the same device, IP, and merchant with large
	// amounts. By the third event the neighborhood is risky enough that
	// the shared-infrastructure ring fires and boosts the score.
	var res *models.RiskResult

	for _, u := range []string{"u1", "u2", "u3"} {
		var err error
		res, err = engine.Process(context.Background(), "acme", event(u, "d1", "10.0.0.1", "m1", 1500))
		require.NoError(t, err)
	}

	require.NotEmpty(t, res.ClusteringInfo.Rings)
	assert.Contains(t, res.ClusteringInfo.Rings[0], "user_u3")
	assert.Contains(t, res.ClusteringInfo.Rings[0], "device_d1")
	assert.InDelta(t, 0.15, res.ClusteringBoost, 1e-9)
	assert.InDelta(t, 0.95, res.RiskScore, 1e-9)
	assert.Contains(t, res.Explanation.Reason, "fraud ring membership")
}

func TestProcess_UserRiskDeltaInvalidatesCache(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	engine, _ := newTestEngine(cache, &fakeSink{})

	// First event moves u1 from 0 to 0.5, well past the delta gate.
	_, err := engine.Process(context.Background(), "acme", event("u1", "d1", "10.0.0.1", "m1", 250))
	require.NoError(t, err)

	assert.Contains(t, cache.invalidated, "u1")
}

func TestProcess_BreakdownIsConsistent(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(noopCache{}, &fakeSink{})

	res, err := engine.Process(context.Background(), "acme", event("u1", "d1", "10.0.0.1", "m1", 1500))
	require.NoError(t, err)

	b := res.Explanation.CalculationBreakdown
	assert.Equal(t, res.BaseRisk, b.BaseRisk)
	assert.Equal(t, b.AfterPropagation, b.AfterTimeDecay)
	assert.Equal(t, res.ClusteringBoost, b.ClusterBoost)
	assert.Equal(t, res.RiskScore, b.Final)
}
