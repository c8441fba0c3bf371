package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRedis(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateEngine(); err != nil {
		return err
	}

	return c.validateSink()
}

// validateDatabase checks DATABASE_URL when set. An empty URL is allowed;
// the service runs without durable persistence.
func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return nil
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		if dbURL.Query().Get("sslmode") == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

// validateRedis checks REDIS_URL when set. An empty URL is allowed; the
// service runs without caching.
func (c *Config) validateRedis() error {
	if c.RedisURL.Value() == "" {
		return nil
	}

	u, err := url.Parse(c.RedisURL.Value())
	if err != nil {
		return fmt.Errorf("REDIS_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return fmt.Errorf("REDIS_URL scheme must be redis:// or rediss://")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Allow loopback addresses for local deployments and 0.0.0.0/:: for
	// containerized deployments where the network boundary is enforced
	// externally (e.g. Docker, Kubernetes).
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateEngine() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("PROPAGATION_ALPHA must be in (0, 1], got %v", c.Alpha)
	}

	if c.MaxDepth < 1 {
		return fmt.Errorf("PROPAGATION_MAX_DEPTH must be at least 1, got %d", c.MaxDepth)
	}

	if c.RiskThreshold <= 0 || c.RiskThreshold >= 1 {
		return fmt.Errorf("PROPAGATION_THRESHOLD must be in (0, 1), got %v", c.RiskThreshold)
	}

	if c.DecayFactor <= 0 || c.DecayFactor > 1 {
		return fmt.Errorf("DECAY_FACTOR must be in (0, 1], got %v", c.DecayFactor)
	}

	if c.DecayFloor < 0 || c.DecayFloor >= 1 {
		return fmt.Errorf("DECAY_FLOOR must be in [0, 1), got %v", c.DecayFloor)
	}

	if c.EventDeadline <= 0 {
		return fmt.Errorf("EVENT_DEADLINE must be positive, got %v", c.EventDeadline)
	}

	if c.DefaultRateLimit <= 0 {
		return fmt.Errorf("DEFAULT_RATE_LIMIT must be positive, got %v", c.DefaultRateLimit)
	}

	if c.RateBurstSeconds <= 0 {
		return fmt.Errorf("RATE_BURST_SECONDS must be positive, got %v", c.RateBurstSeconds)
	}

	if c.PruneHorizon < 0 {
		return fmt.Errorf("PRUNE_HORIZON must not be negative, got %v", c.PruneHorizon)
	}

	return nil
}

func (c *Config) validateSink() error {
	if c.SinkWorkers < 1 || c.SinkWorkers > 16 {
		return fmt.Errorf("SINK_WORKERS must be between 1 and 16, got %d", c.SinkWorkers)
	}

	if c.SinkQueueSize < 1 {
		return fmt.Errorf("SINK_QUEUE_SIZE must be positive, got %d", c.SinkQueueSize)
	}

	if c.SinkMaxAttempts < 1 || c.SinkMaxAttempts > 10 {
		return fmt.Errorf("SINK_MAX_ATTEMPTS must be between 1 and 10, got %d", c.SinkMaxAttempts)
	}

	return nil
}
