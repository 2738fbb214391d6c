// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/config"
	"github.com/oakfield-sports/clubquery/internal/conversation"
	"github.com/oakfield-sports/clubquery/internal/engine"
	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/planner"
	"github.com/oakfield-sports/clubquery/internal/resolver"
	"github.com/oakfield-sports/clubquery/internal/stats"
	"github.com/oakfield-sports/clubquery/internal/synthesizer"
)

// NewRouter creates the API router with the pipeline fully assembled.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"clubquery"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.Executor == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","graph":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	registry := stats.NewRegistry()

	var store conversation.Store
	convCfg := conversation.Config{
		HistoryLen: cfg.Conversation.HistoryLen,
		TTL:        cfg.Conversation.TTL,
	}
	if cfg.Conversation.Store == "redis" {
		store = conversation.NewRedisStore(deps.Cache, convCfg)
	} else {
		store = conversation.NewMemoryStore(convCfg)
	}

	pipeline := engine.New(engine.Deps{
		Analyzer: analyzer.New(registry, logger),
		Resolver: resolver.New(deps.Source, resolver.Config{
			MinMatchScore:   cfg.Resolver.MinMatchScore,
			AmbiguityMargin: cfg.Resolver.AmbiguityMargin,
			MaxCandidates:   cfg.Resolver.MaxCandidates,
		}, logger),
		Planner:       planner.New(registry),
		Synthesizer:   synthesizer.New(registry, logger),
		Store:         store,
		Executor:      deps.Executor,
		Archive:       deps.Archive,
		Logger:        logger,
		MinConfidence: cfg.Analyzer.MinConfidence,
	})

	askHandler := NewAskHandler(logger, pipeline, store)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", askHandler.Ask)
		r.Get("/sessions/{sessionID}/history", askHandler.History)
	})

	return r
}
