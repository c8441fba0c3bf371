package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/metrics"
)

// StatsHandler serves graph statistics and node lookups.
type StatsHandler struct {
	store *graph.Store
	log   *logrus.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(store *graph.Store, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{store: store, log: log}
}

// GetStats handles GET /api/v1/stats: returns aggregate graph statistics.
func (h *StatsHandler) GetStats(c *gin.Context) {
	snap := h.store.Snapshot()

	metrics.GraphNodes.Set(float64(snap.Nodes))
	metrics.GraphEdges.Set(float64(snap.Edges))

	c.JSON(http.StatusOK, snap)
}

// nodeResponse is the JSON payload for a node lookup.
type nodeResponse struct {
	Node      graph.Node   `json:"node"`
	Neighbors []graph.Edge `json:"neighbors"`
}

// GetNode handles GET /api/v1/graph/nodes/:id: returns one node and its
// outgoing edges.
func (h *StatsHandler) GetNode(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	node, ok := h.store.GetNode(id)
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "node not found")

		return
	}

	resp := nodeResponse{Node: node}

	h.store.View(func(tx *graph.Tx) {
		for _, nb := range tx.Neighbors(id, graph.Out) {
			resp.Neighbors = append(resp.Neighbors, nb.Edge)
		}
	})

	c.JSON(http.StatusOK, resp)
}
