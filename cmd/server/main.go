// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package main is the entry point for the Oshifeed server.
//
// Oshifeed is a self-hosted recommendation service for VTuber content. It
// follows a roster of YouTube channels, pools their recent uploads, and
// serves each user a topic-grouped feed ranked by a per-user preference
// profile that adapts to surveys and clicks.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, YAML file, env)
//  2. Storage: BadgerDB for preference profiles and the channel roster
//  3. YouTube client: rate-limited Data API v3 client behind a circuit breaker
//  4. Video pool: shared upload cache with a single-flight refill
//  5. Recommendation engine: topic selection, scoring, feedback ingestion
//  6. Live checker: watch-page probe for live broadcast status
//  7. HTTP server: Chi REST API plus a Prometheus /metrics endpoint
//
// # Configuration
//
// Settings load from built-in defaults, then a config file (config.yaml or
// CONFIG_PATH), then environment variables. Minimal production setup:
//
//	export YOUTUBE_API_KEY=your-data-api-key
//	export JWT_SECRET=$(openssl rand -base64 32)
//	./oshifeed
//
// Local development without auth:
//
//	export YOUTUBE_API_KEY=your-data-api-key
//	export AUTH_MODE=none
//	./oshifeed
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the listener stops
// accepting connections, in-flight requests get 10 seconds to complete, and
// the Badger store is closed last so no profile write is lost.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/harukimoto/oshifeed/internal/api"
	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/feature"
	"github.com/harukimoto/oshifeed/internal/live"
	"github.com/harukimoto/oshifeed/internal/logging"
	"github.com/harukimoto/oshifeed/internal/profile"
	"github.com/harukimoto/oshifeed/internal/recommend"
	"github.com/harukimoto/oshifeed/internal/roster"
	"github.com/harukimoto/oshifeed/internal/videocache"
	"github.com/harukimoto/oshifeed/internal/youtube"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_path", cfg.Store.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Dur("pool_window", cfg.Pool.Window).
		Int("dictionary_tags", len(cfg.Recommend.Dictionary)).
		Msg("Configuration loaded")

	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("Authentication is disabled (AUTH_MODE=none); use only on private networks")
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.Store.Path).WithLogger(nil))
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Msg("Store opened")

	profiles := profile.NewStore(db)
	channels := roster.NewStore(db)

	ytClient := youtube.NewCircuitBreakerClient(youtube.NewClient(&cfg.YouTube))
	pool := videocache.NewPool(ytClient, channels, cfg.Pool.Window, cfg.Pool.PageSize)

	featureCfg := feature.Config{
		ShortMarkers:     cfg.Recommend.Markers.Short,
		ArchiveMarkers:   cfg.Recommend.Markers.Archive,
		ClipMarkers:      cfg.Recommend.Markers.Clip,
		SeriesExclusions: cfg.Recommend.Markers.SeriesExclusions,
	}

	engine, err := recommend.New(cfg.Recommend.Dictionary, recommend.DefaultConfig(), featureCfg,
		profiles, channels, pool, ytClient)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}

	liveChecker := live.NewChecker(&cfg.Live)

	handler := api.NewHandler(engine, profiles, channels, pool, liveChecker)
	router := api.NewRouter(handler, &cfg.Security)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
