// riskmesh is the fraud risk scoring service: an in-memory entity graph
// scored on every transaction event, with Redis result caching and
// asynchronous PostgreSQL persistence. Both backends are optional; the
// service degrades to pure in-memory scoring when they are absent.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/api"
	"github.com/riskmesh/riskmesh/internal/cache"
	"github.com/riskmesh/riskmesh/internal/config"
	"github.com/riskmesh/riskmesh/internal/db"
	"github.com/riskmesh/riskmesh/internal/db/migrations"
	"github.com/riskmesh/riskmesh/internal/dbpool"
	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/middleware"
	"github.com/riskmesh/riskmesh/internal/risk"
	"github.com/riskmesh/riskmesh/internal/sink"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// pruneInterval is how often idle graph nodes are evicted when pruning is
// enabled.
const pruneInterval = 10 * time.Minute

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration invalid")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := connectDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	riskCache := connectCache(cfg, log)

	var (
		writer    *sink.Writer
		analytics api.AnalyticsReader
	)

	if pool != nil {
		writer = sink.NewWriter(sink.NewStore(pool), log, sink.WriterOptions{
			QueueSize:   cfg.SinkQueueSize,
			Workers:     cfg.SinkWorkers,
			MaxAttempts: cfg.SinkMaxAttempts,
		})
		analytics = sink.NewAnalytics(pool)
	} else {
		writer = sink.NewWriter(nil, log, sink.WriterOptions{})
	}

	store := graph.NewStore()
	engine := risk.NewEngine(
		store,
		graph.NewDecay(cfg.DecayFactor, cfg.DecayFloor),
		graph.NewPropagator(cfg.Alpha, cfg.MaxDepth, cfg.RiskThreshold),
		graph.NewDetector(graph.DefaultDetectorConfig()),
		risk.NewCalculator(),
		riskCache,
		writer,
		log,
	)

	// The writer gets its own context so it can drain after the HTTP
	// server has stopped accepting requests.
	writerCtx, stopWriter := context.WithCancel(context.Background())
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		writer.Run(writerCtx)
	}()

	if cfg.PruneHorizon > 0 {
		go runPruner(ctx, store, cfg.PruneHorizon, log)
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:              log,
		Pool:             pool,
		Engine:           engine,
		Graph:            store,
		Cache:            riskCache,
		Analytics:        analytics,
		Keyring:          buildKeyring(cfg),
		CORSOrigins:      cfg.CORSOrigins,
		Version:          config.Version,
		EventDeadline:    cfg.EventDeadline,
		RateBurstSeconds: cfg.RateBurstSeconds,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"version": config.Version,
		}).Info("riskmesh listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		log.WithError(err).Error("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced server shutdown")
	}

	// Stop the writer last so in-flight scores still reach the database.
	stopWriter()
	<-writerDone

	log.Info("riskmesh stopped")
}

// connectDatabase opens the PostgreSQL pool and applies migrations. Any
// failure is a warning; the service runs without durable persistence.
func connectDatabase(ctx context.Context, cfg *config.Config, log *logrus.Logger) *dbpool.Pool {
	if cfg.DatabaseURL.Value() == "" {
		log.Warn("DATABASE_URL not set, transaction history and analytics disabled")

		return nil
	}

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		log.WithError(err).Warn("database unreachable, continuing without persistence")

		return nil
	}

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		log.WithError(err).Warn("migrations failed, continuing without persistence")
		pool.Close()

		return nil
	}

	return pool
}

// connectCache builds the Redis result cache, degrading to a disabled cache
// when Redis is not configured or the URL is invalid.
func connectCache(cfg *config.Config, log *logrus.Logger) *cache.Cache {
	if cfg.RedisURL.Value() == "" {
		log.Warn("REDIS_URL not set, result caching disabled")

		return cache.Disabled(log)
	}

	c, err := cache.New(cfg.RedisURL.Value(), cache.Options{
		ResultTTL: cfg.ResultTTL,
		UserTTL:   cfg.UserTTL,
		EntityTTL: cfg.EntityTTL,
	}, log)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL, result caching disabled")

		return cache.Disabled(log)
	}

	return c
}

// buildKeyring assembles the API keyring from configuration.
func buildKeyring(cfg *config.Config) *middleware.Keyring {
	keys := make(map[string]middleware.Principal, len(cfg.APIKeys))

	for _, k := range cfg.APIKeys {
		keys[k.Key.Value()] = middleware.Principal{Name: k.Name, RateLimit: k.RateLimit}
	}

	return middleware.NewKeyring(keys, cfg.DefaultRateLimit, cfg.DenyUnknown)
}

// runPruner periodically evicts graph nodes idle longer than the horizon.
func runPruner(ctx context.Context, store *graph.Store, horizon time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.Prune(horizon); removed > 0 {
				log.WithField("removed", removed).Info("pruned idle graph nodes")
			}
		}
	}
}
