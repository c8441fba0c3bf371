package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/riskmesh/riskmesh/internal/api"
	"github.com/riskmesh/riskmesh/internal/cache"
)

func TestHealth_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequestWithoutKey(router, http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Database string `json:"database"`
		Cache    string `json:"cache"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("response = %+v", resp)
	}

	// No database or cache configured in tests.
	if resp.Database != "not_configured" || resp.Cache != "disabled" {
		t.Errorf("dependency states = %s/%s", resp.Database, resp.Cache)
	}
}

func TestHealth_ReportsConnectedCache(t *testing.T) {
	router := newTestRouter(t, func(deps *api.RouterDeps) {
		deps.Cache = &mockCache{stats: cache.Stats{Enabled: true}}
	})

	w := doRequestWithoutKey(router, http.MethodGet, "/api/v1/health", "")

	var resp struct {
		Cache string `json:"cache"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Cache != "connected" {
		t.Errorf("cache = %s, want connected", resp.Cache)
	}
}

func TestReadiness_ReadyWithoutDatabase(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequestWithoutKey(router, http.MethodGet, "/api/v1/ready", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Status != "ready" || resp.Checks["database"] != "not_configured" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCacheStats(t *testing.T) {
	router := newTestRouter(t, func(deps *api.RouterDeps) {
		deps.Cache = &mockCache{stats: cache.Stats{Enabled: true, Hits: 10, Misses: 5, HitRate: 2.0 / 3}}
	})

	w := doRequest(router, http.MethodGet, "/api/v1/cache/stats", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats cache.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !stats.Enabled || stats.Hits != 10 || stats.Misses != 5 {
		t.Errorf("stats = %+v", stats)
	}
}
