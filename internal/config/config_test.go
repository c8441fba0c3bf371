package config

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host state cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "PORT", "LISTEN_HOST", "LOG_LEVEL",
		"CORS_ORIGINS", "API_KEYS", "API_DENY_UNKNOWN",
		"PROPAGATION_ALPHA", "PROPAGATION_MAX_DEPTH", "PROPAGATION_THRESHOLD",
		"DECAY_FACTOR", "DECAY_FLOOR", "EVENT_DEADLINE",
		"CACHE_RESULT_TTL", "CACHE_USER_TTL", "CACHE_ENTITY_TTL",
		"SINK_WORKERS", "SINK_QUEUE_SIZE", "SINK_MAX_ATTEMPTS",
		"DEFAULT_RATE_LIMIT", "RATE_BURST_SECONDS", "PRUNE_HORIZON",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.Port != "8080" || cfg.ListenHost != "127.0.0.1" {
		t.Errorf("network defaults = %s:%s", cfg.ListenHost, cfg.Port)
	}

	if cfg.Alpha != 0.5 || cfg.MaxDepth != 2 || cfg.RiskThreshold != 0.1 {
		t.Errorf("propagation defaults = %v/%d/%v", cfg.Alpha, cfg.MaxDepth, cfg.RiskThreshold)
	}

	if cfg.DecayFactor != 0.995 || cfg.DecayFloor != 0.01 {
		t.Errorf("decay defaults = %v/%v", cfg.DecayFactor, cfg.DecayFloor)
	}

	if cfg.EventDeadline != 200*time.Millisecond {
		t.Errorf("EventDeadline = %v", cfg.EventDeadline)
	}

	if cfg.ResultTTL != 15*time.Minute || cfg.UserTTL != 30*time.Minute || cfg.EntityTTL != time.Hour {
		t.Errorf("TTL defaults = %v/%v/%v", cfg.ResultTTL, cfg.UserTTL, cfg.EntityTTL)
	}

	if cfg.SinkWorkers != 2 || cfg.SinkQueueSize != 1000 || cfg.SinkMaxAttempts != 3 {
		t.Errorf("sink defaults = %d/%d/%d", cfg.SinkWorkers, cfg.SinkQueueSize, cfg.SinkMaxAttempts)
	}

	if cfg.DenyUnknown {
		t.Error("DenyUnknown should default to false")
	}

	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PROPAGATION_ALPHA", "0.7")
	t.Setenv("EVENT_DEADLINE", "500ms")
	t.Setenv("API_DENY_UNKNOWN", "true")
	t.Setenv("API_KEYS", "sk-1:acme:50, sk-2:globex")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.Port != "9090" || cfg.Alpha != 0.7 || cfg.EventDeadline != 500*time.Millisecond {
		t.Errorf("overrides not applied: %s/%v/%v", cfg.Port, cfg.Alpha, cfg.EventDeadline)
	}

	if !cfg.DenyUnknown {
		t.Error("DenyUnknown should be true")
	}

	if len(cfg.APIKeys) != 2 {
		t.Fatalf("APIKeys = %d entries, want 2", len(cfg.APIKeys))
	}

	if cfg.APIKeys[0].Name != "acme" || cfg.APIKeys[0].RateLimit != 50 {
		t.Errorf("first key = %+v", cfg.APIKeys[0])
	}

	if cfg.APIKeys[1].Name != "globex" || cfg.APIKeys[1].RateLimit != 0 {
		t.Errorf("second key = %+v", cfg.APIKeys[1])
	}

	if cfg.APIKeys[0].Key.Value() != "sk-1" {
		t.Error("key value should round-trip through the Secret wrapper")
	}
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"PORT": "99999"}, "PORT"},
		{"bad listen host", map[string]string{"LISTEN_HOST": "8.8.8.8"}, "LISTEN_HOST"},
		{"wildcard cors", map[string]string{"CORS_ORIGINS": "*"}, "CORS_ORIGINS"},
		{"schemeless cors", map[string]string{"CORS_ORIGINS": "example.com"}, "CORS_ORIGINS"},
		{"alpha too big", map[string]string{"PROPAGATION_ALPHA": "1.5"}, "PROPAGATION_ALPHA"},
		{"zero depth", map[string]string{"PROPAGATION_MAX_DEPTH": "0"}, "PROPAGATION_MAX_DEPTH"},
		{"bad decay", map[string]string{"DECAY_FACTOR": "0"}, "DECAY_FACTOR"},
		{"bad scheme", map[string]string{"DATABASE_URL": "mysql://db:3306/x"}, "DATABASE_URL"},
		{
			"remote sslmode disable",
			map[string]string{"DATABASE_URL": "postgres://u:p@db.internal:5432/risk?sslmode=disable"},
			"sslmode",
		},
		{"bad redis scheme", map[string]string{"REDIS_URL": "http://cache:6379"}, "REDIS_URL"},
		{"too many workers", map[string]string{"SINK_WORKERS": "64"}, "SINK_WORKERS"},
		{"bad duration", map[string]string{"EVENT_DEADLINE": "fast"}, "EVENT_DEADLINE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}

			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestParseAPIKeys_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"justakey", "key:", ":name", "k:n:0", "k:n:-5", "k:n:fast", "k:n:1:extra"} {
		if _, err := parseAPIKeys(raw); err == nil {
			t.Errorf("parseAPIKeys(%q) should fail", raw)
		}
	}

	keys, err := parseAPIKeys("")
	if err != nil || keys != nil {
		t.Errorf("empty input = %v, %v", keys, err)
	}
}

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	s := Secret("postgres://u:hunter2@db/risk")

	if got := fmt.Sprintf("%s %v %#v", s, s, s); strings.Contains(got, "hunter2") {
		t.Fatalf("secret leaked through formatting: %s", got)
	}

	text, err := s.MarshalText()
	if err != nil || strings.Contains(string(text), "hunter2") {
		t.Fatalf("secret leaked through MarshalText: %s", text)
	}

	if s.Value() != "postgres://u:hunter2@db/risk" {
		t.Fatal("Value() must return the raw secret")
	}
}
