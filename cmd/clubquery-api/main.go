// Package main provides the club query API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/oakfield-sports/clubquery/internal/archive"
	"github.com/oakfield-sports/clubquery/internal/cache"
	"github.com/oakfield-sports/clubquery/internal/config"
	"github.com/oakfield-sports/clubquery/internal/graph"
	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/roster"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "clubquery-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("graph", cfg.Graph.URI).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting club query API")

	deps, cleanup := buildDependencies(cfg, logger)
	defer cleanup()

	router := NewRouter(logger, cfg, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// Dependencies are the backing stores the router wires into the pipeline.
// Any of them may be nil; the engine degrades to classified failure
// envelopes instead of refusing to start.
type Dependencies struct {
	Executor graph.Executor
	Source   roster.NameSource
	Cache    cache.Client
	Archive  *archive.Store
}

func buildDependencies(cfg *config.Config, logger *observability.Logger) (Dependencies, func()) {
	var deps Dependencies
	var closers []func()

	switch cfg.Cache.Driver {
	case "redis":
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
			deps.Cache = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		} else {
			deps.Cache = client
		}
	default:
		deps.Cache = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	closers = append(closers, func() { _ = deps.Cache.Close() })

	driver, err := neo4j.NewDriverWithContext(cfg.Graph.URI,
		neo4j.BasicAuth(cfg.Graph.Username, cfg.Graph.Password, ""))
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = driver.VerifyConnectivity(ctx)
		cancel()
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Records graph unavailable, starting degraded")
		deps.Source = &roster.StaticSource{}
	} else {
		deps.Executor = graph.NewCachedExecutor(
			graph.NewNeo4jExecutor(driver, cfg.Graph.Database),
			deps.Cache, cfg.Cache.TTL, logger,
		)
		deps.Source = roster.NewGraphSource(driver, cfg.Graph.Database)
		closers = append(closers, func() { _ = driver.Close(context.Background()) })
	}

	if cfg.Archive.Path != "" {
		store, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.Archive.Path).Msg("Season archive unavailable")
		} else {
			deps.Archive = store
			closers = append(closers, func() { _ = store.Close() })
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return deps, cleanup
}
