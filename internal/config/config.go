// Package config provides environment-driven configuration for the risk
// engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// APIKey is one configured client credential.
type APIKey struct {
	Key  Secret
	Name string

	// RateLimit is the sustained request rate in requests per second; 0
	// falls back to DefaultRateLimit.
	RateLimit float64
}

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	RedisURL    Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string

	// Propagation tuning.
	Alpha         float64
	MaxDepth      int
	RiskThreshold float64

	// Time decay tuning.
	DecayFactor float64
	DecayFloor  float64

	// EventDeadline bounds one scoring pass end to end.
	EventDeadline time.Duration

	// Cache TTLs.
	ResultTTL time.Duration
	UserTTL   time.Duration
	EntityTTL time.Duration

	// Sink tuning.
	SinkWorkers     int
	SinkQueueSize   int
	SinkMaxAttempts int

	// Authentication and rate limiting.
	APIKeys          []APIKey
	DenyUnknown      bool
	DefaultRateLimit float64
	RateBurstSeconds float64

	// PruneHorizon evicts graph nodes idle longer than this; 0 disables
	// pruning.
	PruneHorizon time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		RedisURL:    Secret(envOrDefault("REDIS_URL", "")),
		Port:        envOrDefault("PORT", "8080"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		DenyUnknown: envOrDefault("API_DENY_UNKNOWN", "false") == "true",
	}

	var err error

	if cfg.Alpha, err = envFloat("PROPAGATION_ALPHA", 0.5); err != nil {
		return nil, err
	}

	if cfg.MaxDepth, err = envInt("PROPAGATION_MAX_DEPTH", 2); err != nil {
		return nil, err
	}

	if cfg.RiskThreshold, err = envFloat("PROPAGATION_THRESHOLD", 0.1); err != nil {
		return nil, err
	}

	if cfg.DecayFactor, err = envFloat("DECAY_FACTOR", 0.995); err != nil {
		return nil, err
	}

	if cfg.DecayFloor, err = envFloat("DECAY_FLOOR", 0.01); err != nil {
		return nil, err
	}

	if cfg.EventDeadline, err = envDuration("EVENT_DEADLINE", 200*time.Millisecond); err != nil {
		return nil, err
	}

	if cfg.ResultTTL, err = envDuration("CACHE_RESULT_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	if cfg.UserTTL, err = envDuration("CACHE_USER_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.EntityTTL, err = envDuration("CACHE_ENTITY_TTL", 60*time.Minute); err != nil {
		return nil, err
	}

	if cfg.SinkWorkers, err = envInt("SINK_WORKERS", 2); err != nil {
		return nil, err
	}

	if cfg.SinkQueueSize, err = envInt("SINK_QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}

	if cfg.SinkMaxAttempts, err = envInt("SINK_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}

	if cfg.DefaultRateLimit, err = envFloat("DEFAULT_RATE_LIMIT", 100); err != nil {
		return nil, err
	}

	if cfg.RateBurstSeconds, err = envFloat("RATE_BURST_SECONDS", 1); err != nil {
		return nil, err
	}

	if cfg.PruneHorizon, err = envDuration("PRUNE_HORIZON", 0); err != nil {
		return nil, err
	}

	if cfg.APIKeys, err = parseAPIKeys(os.Getenv("API_KEYS")); err != nil {
		return nil, err
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// parseAPIKeys parses the API_KEYS value: comma-separated key:name:limit
// entries, where limit is optional requests per second.
func parseAPIKeys(raw string) ([]APIKey, error) {
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	keys := make([]APIKey, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("API_KEYS entries must be key:name or key:name:limit")
		}

		k := APIKey{Key: Secret(parts[0]), Name: parts[1]}

		if len(parts) == 3 {
			limit, err := strconv.ParseFloat(parts[2], 64)
			if err != nil || limit <= 0 {
				return nil, fmt.Errorf("API_KEYS limit for %q must be a positive number", k.Name)
			}

			k.RateLimit = limit
		}

		keys = append(keys, k)
	}

	return keys, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}

	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 200ms or 5m: %w", key, err)
	}

	return d, nil
}
