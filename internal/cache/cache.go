// Package cache provides the Redis-backed memoization layer for scoring
// results, user risk, and entity snapshots.
//
// The cache is strictly best-effort: on failure reads become misses and
// writes become no-ops, logged at most once per interval so a down Redis
// never floods the log or the hot path.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/models"
)

// Keyspace TTL defaults.
const (
	DefaultResultTTL = 15 * time.Minute
	DefaultUserTTL   = 30 * time.Minute
	DefaultEntityTTL = 60 * time.Minute
)

// readTimeout is the sub-deadline for cache reads; past it the read counts
// as a miss so the scoring path never waits on a slow cache.
const readTimeout = 20 * time.Millisecond

// warnInterval throttles degraded-mode logging.
const warnInterval = 30 * time.Second

// Cache is the Redis-backed TTL'd blob store. The zero value is unusable;
// construct with New or Disabled.
type Cache struct {
	rdb *redis.Client
	log *logrus.Logger

	resultTTL time.Duration
	userTTL   time.Duration
	entityTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	warnMu   sync.Mutex
	lastWarn time.Time
}

// Options tunes the cache TTLs; zero values fall back to the defaults.
type Options struct {
	ResultTTL time.Duration
	UserTTL   time.Duration
	EntityTTL time.Duration
}

// New connects to Redis at redisURL. A parse failure is an error; an
// unreachable server is not: the cache starts degraded and go-redis
// reconnects when the server returns.
func New(redisURL string, opts Options, log *logrus.Logger) (*Cache, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	c := newCache(redis.NewClient(ropts), opts, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, cache degraded to pass-through")
	}

	return c, nil
}

// Disabled returns a cache with no backing store: every read is a miss and
// every write a no-op.
func Disabled(log *logrus.Logger) *Cache {
	return newCache(nil, Options{}, log)
}

func newCache(rdb *redis.Client, opts Options, log *logrus.Logger) *Cache {
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = DefaultResultTTL
	}

	if opts.UserTTL <= 0 {
		opts.UserTTL = DefaultUserTTL
	}

	if opts.EntityTTL <= 0 {
		opts.EntityTTL = DefaultEntityTTL
	}

	return &Cache{
		rdb:       rdb,
		log:       log,
		resultTTL: opts.ResultTTL,
		userTTL:   opts.UserTTL,
		entityTTL: opts.EntityTTL,
	}
}

func resultKey(principal, fingerprint string) string {
	return "propagation:" + principal + ":" + fingerprint
}

func userKey(userID string) string {
	return "user_risk:" + userID
}

func entityKey(entityType, entityID string) string {
	return "entity:" + entityType + ":" + entityID
}

// GetResult returns the memoized scoring result for (principal,
// fingerprint), or a miss.
func (c *Cache) GetResult(ctx context.Context, principal, fingerprint string) (*models.RiskResult, bool) {
	if c.rdb == nil {
		c.misses.Add(1)

		return nil, false
	}

	rctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	data, err := c.rdb.Get(rctx, resultKey(principal, fingerprint)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.warn(err, "cache read failed, treating as miss")
		}

		c.misses.Add(1)

		return nil, false
	}

	var result models.RiskResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.warn(err, "cache entry corrupt, treating as miss")
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)

	return &result, true
}

// SetResult memoizes a scoring result under (principal, fingerprint).
func (c *Cache) SetResult(ctx context.Context, principal, fingerprint string, r *models.RiskResult) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}

	c.set(ctx, resultKey(principal, fingerprint), data, c.resultTTL)
}

// SetUserRisk caches a user's current risk score.
func (c *Cache) SetUserRisk(ctx context.Context, userID string, risk float64) {
	c.set(ctx, userKey(userID), []byte(strconv.FormatFloat(risk, 'g', -1, 64)), c.userTTL)
}

// SetEntity caches an entity's current risk score.
func (c *Cache) SetEntity(ctx context.Context, entityType, entityID string, risk float64) {
	c.set(ctx, entityKey(entityType, entityID), []byte(strconv.FormatFloat(risk, 'g', -1, 64)), c.entityTTL)
}

// InvalidateUser drops a user's cached risk entry.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) {
	if c.rdb == nil {
		return
	}

	if err := c.rdb.Del(ctx, userKey(userID)).Err(); err != nil {
		c.warn(err, "cache invalidate failed")
	}
}

func (c *Cache) set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.warn(err, "cache write failed, dropping entry")
	}
}

// Stats reports cache health and effectiveness.
type Stats struct {
	Enabled     bool    `json:"enabled"`
	Keys        int64   `json:"keys"`
	MemoryBytes int64   `json:"memory_bytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
}

// Stats returns current cache statistics. Key and memory figures are
// best-effort and zero when Redis is unavailable.
func (c *Cache) Stats(ctx context.Context) Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	s := Stats{
		Enabled: c.rdb != nil,
		Hits:    hits,
		Misses:  misses,
	}

	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}

	if c.rdb == nil {
		return s
	}

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if keys, err := c.rdb.DBSize(rctx).Result(); err == nil {
		s.Keys = keys
	}

	if info, err := c.rdb.Info(rctx, "memory").Result(); err == nil {
		s.MemoryBytes = parseUsedMemory(info)
	}

	return s
}

// parseUsedMemory extracts used_memory from an INFO memory section.
func parseUsedMemory(info string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory:"); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err == nil {
				return n
			}
		}
	}

	return 0
}

// warn logs a degraded-cache condition at most once per interval.
func (c *Cache) warn(err error, msg string) {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()

	if time.Since(c.lastWarn) < warnInterval {
		return
	}

	c.lastWarn = time.Now()
	c.log.WithError(err).Warn(msg)
}
