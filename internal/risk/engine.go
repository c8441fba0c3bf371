package risk

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/metrics"
	"github.com/riskmesh/riskmesh/internal/models"
)

// Canonical edge weights observed per event.
const (
	WeightUserDevice     = 0.8
	WeightUserIP         = 0.7
	WeightUserMerchant   = 0.5
	WeightDeviceIP       = 0.9
	WeightDeviceMerchant = 0.6
	WeightUserCard       = 0.8
	WeightCardMerchant   = 0.6
)

// invalidateDelta is the absolute user-risk change that forces the user's
// cache entry out.
const invalidateDelta = 0.05

// ResultCache is the keyed, TTL'd memoization layer the engine writes to.
// Implementations must degrade silently: a miss on error, a no-op on write
// failure.
type ResultCache interface {
	GetResult(ctx context.Context, principal, fingerprint string) (*models.RiskResult, bool)
	SetResult(ctx context.Context, principal, fingerprint string, r *models.RiskResult)
	SetUserRisk(ctx context.Context, userID string, risk float64)
	SetEntity(ctx context.Context, entityType, entityID string, risk float64)
	InvalidateUser(ctx context.Context, userID string)
}

// Recorder accepts transaction rows for asynchronous durable persistence.
type Recorder interface {
	Enqueue(tx *models.Transaction)
}

// Engine orchestrates scoring for one event: graph mutation, lazy decay,
// base risk, propagation, clustering, explanation, and the cache/sink/metrics
// side effects. It is re-entrant; all shared state lives in the graph store,
// the cache, and the sink.
type Engine struct {
	graph     *graph.Store
	decay     *graph.Decay
	prop      *graph.Propagator
	detector  *graph.Detector
	rules     *Calculator
	explainer Explainer
	cache     ResultCache
	sink      Recorder
	log       *logrus.Logger

	now func() time.Time

	// ringed tracks node IDs already reported as ring members, so the
	// engine can tell when a user joins a newly detected ring. Derived
	// state only; never authoritative.
	ringMu sync.Mutex
	ringed map[string]bool
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(
	g *graph.Store,
	decay *graph.Decay,
	prop *graph.Propagator,
	detector *graph.Detector,
	rules *Calculator,
	cache ResultCache,
	sink Recorder,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		graph:    g,
		decay:    decay,
		prop:     prop,
		detector: detector,
		rules:    rules,
		cache:    cache,
		sink:     sink,
		log:      log,
		now:      time.Now,
		ringed:   make(map[string]bool),
	}
}

// Process scores one event end to end. Validation and rate limiting happen
// before this call; every other subsystem failure is absorbed so scoring
// stays available.
func (e *Engine) Process(ctx context.Context, principal string, ev models.Event) (*models.RiskResult, error) {
	start := e.now()

	if err := ev.Validate(); err != nil {
		return nil, err
	}

	fingerprint := ev.Fingerprint()

	if cached, ok := e.cache.GetResult(ctx, principal, fingerprint); ok {
		metrics.CacheHits.Inc()
		cached.Cached = true
		cached.TotalLatencyMs = msSince(start, e.now())

		return cached, nil
	}

	metrics.CacheMisses.Inc()

	userID := graph.NodeID(graph.TypeUser, ev.UserID)
	deviceID := graph.NodeID(graph.TypeDevice, ev.DeviceID)
	ipID := graph.NodeID(graph.TypeIP, ev.IPAddress)
	merchantID := graph.NodeID(graph.TypeMerchant, ev.MerchantID)

	entities := []entityRef{
		{userID, ev.UserID, graph.TypeUser},
		{deviceID, ev.DeviceID, graph.TypeDevice},
		{ipID, ev.IPAddress, graph.TypeIP},
		{merchantID, ev.MerchantID, graph.TypeMerchant},
	}

	cardID := ""
	if ev.CardID != "" {
		cardID = graph.NodeID(graph.TypeCard, ev.CardID)
		entities = append(entities, entityRef{cardID, ev.CardID, graph.TypeCard})
	}

	var (
		prevUserRisk float64
		baseRisk     float64
		findings     []models.TriggeredRule
		prop         graph.Result
		report       *graph.Report
		boost        float64
		final        float64
		entityRisks  map[string]float64
		propElapsed  time.Duration
	)

	// Steps 2-7 of the event flow run under the graph's write lock. Nothing
	// in here may block on I/O.
	e.graph.Update(func(tx *graph.Tx) {
		if n := tx.Node(userID); n != nil {
			prevUserRisk = n.Risk
		}

		for _, ent := range entities {
			_, prevSeen, created := tx.UpsertNode(ent.id, ent.typ, 0)
			if !created {
				e.decay.ApplyNode(tx, ent.id, prevSeen)
			}
		}

		// Base risk reads edge presence before this event's edges land.
		baseRisk, findings = e.rules.Calculate(&RuleContext{Event: ev, EdgeExists: tx.EdgeExists})

		tx.UpsertEdge(userID, deviceID, WeightUserDevice)
		tx.UpsertEdge(userID, ipID, WeightUserIP)
		tx.UpsertEdge(userID, merchantID, WeightUserMerchant)
		tx.UpsertEdge(deviceID, ipID, WeightDeviceIP)
		tx.UpsertEdge(deviceID, merchantID, WeightDeviceMerchant)

		if cardID != "" {
			tx.UpsertEdge(userID, cardID, WeightUserCard)
			tx.UpsertEdge(cardID, merchantID, WeightCardMerchant)
		}

		propStart := time.Now()
		prop = e.prop.Propagate(ctx, tx, userID, baseRisk)
		propElapsed = time.Since(propStart)

		seeds := make([]string, 0, len(entities))
		for _, ent := range entities {
			seeds = append(seeds, ent.id)
		}

		report = e.detector.Detect(tx, seeds)

		for id, b := range report.Boosts {
			tx.SetRisk(id, tx.Risk(id)+b)
		}

		boost = report.Boosts[userID]
		final = tx.Risk(userID)

		entityRisks = make(map[string]float64, len(entities))
		for _, ent := range entities {
			entityRisks[ent.id] = tx.Risk(ent.id)
		}
	})

	metrics.PropagationLatency.Observe(float64(propElapsed.Milliseconds()))

	now := e.now()
	result := &models.RiskResult{
		TransactionID:    uuid.New().String(),
		RiskScore:        round3(final),
		BaseRisk:         round3(baseRisk),
		ClusteringBoost:  round3(boost),
		PropagationDepth: prop.Depth,
		DepthTruncated:   prop.Truncated,
		TotalLatencyMs:   msSince(start, now),
		Timestamp:        now,
		ClusteringInfo: models.ClusteringInfo{
			Rings:          report.Rings,
			DenseSubgraphs: report.Dense,
			StarPatterns:   report.Stars,
		},
	}

	breakdown := models.Breakdown{
		BaseRisk:         round3(baseRisk),
		AfterPropagation: round3(prop.Updates[userID]),
		AfterTimeDecay:   round3(prop.Updates[userID]),
		ClusterBoost:     round3(boost),
		Final:            round3(final),
	}

	result.Explanation = e.explainer.Explain(ExplainInput{
		SourceID:    userID,
		Findings:    findings,
		Breakdown:   breakdown,
		Propagation: prop,
		Clusters:    report,
	})

	if result.Flagged() {
		metrics.FlaggedTotal.Inc()
	}

	e.sink.Enqueue(&models.Transaction{
		ID:                result.TransactionID,
		UserID:            ev.UserID,
		DeviceID:          ev.DeviceID,
		IPAddress:         ev.IPAddress,
		MerchantID:        ev.MerchantID,
		CardID:            ev.CardID,
		TransactionAmount: ev.TransactionAmount,
		RiskScore:         result.RiskScore,
		PropagationDepth:  result.PropagationDepth,
		LatencyMs:         result.TotalLatencyMs,
		CreatedAt:         now,
	})

	snap := e.graph.Snapshot()
	metrics.GraphNodes.Set(float64(snap.Nodes))
	metrics.GraphEdges.Set(float64(snap.Edges))

	e.cache.SetResult(ctx, principal, fingerprint, result)
	e.cache.SetUserRisk(ctx, ev.UserID, final)

	for _, ent := range entities {
		if ent.typ == graph.TypeUser {
			continue
		}

		e.cache.SetEntity(ctx, string(ent.typ), ent.raw, entityRisks[ent.id])
	}

	if math.Abs(final-prevUserRisk) > invalidateDelta || e.noteNewRing(report.Rings, userID) {
		e.cache.InvalidateUser(ctx, ev.UserID)
	}

	e.log.WithFields(logrus.Fields{
		"transaction_id": result.TransactionID,
		"risk_score":     result.RiskScore,
		"base_risk":      result.BaseRisk,
		"depth":          result.PropagationDepth,
		"rings":          len(report.Rings),
		"latency_ms":     result.TotalLatencyMs,
	}).Debug("event scored")

	return result, nil
}

// entityRef pairs a node's graph ID with the raw identifier from the event.
type entityRef struct {
	id  string
	raw string
	typ graph.NodeType
}

// noteNewRing records current ring members and reports whether nodeID just
// became one.
func (e *Engine) noteNewRing(rings [][]string, nodeID string) bool {
	e.ringMu.Lock()
	defer e.ringMu.Unlock()

	isNew := false

	for _, ring := range rings {
		for _, member := range ring {
			if !e.ringed[member] {
				e.ringed[member] = true

				if member == nodeID {
					isNew = true
				}
			}
		}
	}

	return isNew
}

func msSince(start, now time.Time) float64 {
	return float64(now.Sub(start).Microseconds()) / 1000
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
