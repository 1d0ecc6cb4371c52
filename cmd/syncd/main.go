// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command syncd starts the Aleutian Sync API server.
//
// Aleutian Sync keeps C/C++ implementation files in declaration order:
//   - Heuristic prototype extraction from headers (no compiler needed)
//   - Cross-file implementation discovery with brace-depth delimitation
//   - Order-preserving reorder plans, previewed or applied atomically
//
// Usage:
//
//	go run ./cmd/syncd -root /path/to/project
//	go run ./cmd/syncd -root /path/to/project -port 9090
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/sync/health
//
//	# Scan a header
//	curl -X POST http://localhost:8080/v1/sync/scan \
//	  -H "Content-Type: application/json" \
//	  -d '{"header_path": "/path/to/project/include/engine.h"}'
//
//	# Preview a reorder plan
//	curl -X POST http://localhost:8080/v1/sync/plan \
//	  -H "Content-Type: application/json" \
//	  -d '{"header_path": ".../engine.h", "target_file": ".../engine.cpp"}'
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	syncsvc "github.com/AleutianAI/AleutianSync/services/sync"
	"github.com/AleutianAI/AleutianSync/services/sync/cache"
	"github.com/AleutianAI/AleutianSync/services/sync/config"
	badgerstore "github.com/AleutianAI/AleutianSync/services/sync/storage/badger"
	"github.com/AleutianAI/AleutianSync/services/sync/workspace"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	root := flag.String("root", ".", "Project root to enumerate candidate files under")
	noWatch := flag.Bool("no-watch", false, "Disable header change watching")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so callers can correlate spans.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cfg, err := config.Get()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := cache.NewMemoryStore()

	// Open the scan cache BadgerDB. Graceful degradation: if unavailable,
	// scans continue in in-memory-only mode.
	var scanStore cache.ScanStore
	var scanDB *badgerstore.DB
	cacheDir := os.Getenv("SYNC_CACHE_DIR")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cacheDir = filepath.Join(home, ".aleutian", "cache", "sync")
		}
	}
	if cacheDir != "" {
		bcfg := badgerstore.DefaultConfig()
		bcfg.Path = cacheDir
		db, err := badgerstore.OpenDB(bcfg)
		if err != nil {
			slog.Warn("Scan cache BadgerDB unavailable, scan persistence disabled",
				slog.String("path", cacheDir),
				slog.String("error", err.Error()),
			)
		} else {
			scanDB = db
			scanStore = cache.NewBadgerScanStore(db, 0, slog.Default())
			slog.Info("Scan cache BadgerDB opened", slog.String("path", cacheDir))
		}
	}

	// Watch scanned headers so cached prototypes never go stale silently.
	var watcher *workspace.HeaderWatcher
	var observer syncsvc.HeaderObserver
	if !*noWatch {
		watcher, err = workspace.NewHeaderWatcher(store, slog.Default())
		if err != nil {
			slog.Warn("Header watching unavailable, cache invalidation is manual",
				slog.String("error", err.Error()))
		} else {
			observer = watcher
		}
	}

	svc, err := syncsvc.NewService(syncsvc.ServiceConfig{
		Config:      cfg,
		Store:       store,
		ScanStore:   scanStore,
		Workspace:   workspace.NewFS(),
		ProjectRoot: *root,
		Watcher:     observer,
	})
	if err != nil {
		slog.Error("Failed to create service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers := syncsvc.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	syncsvc.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port, *root, scanStore != nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down Aleutian Sync server")
		if watcher != nil {
			if err := watcher.Close(); err != nil {
				slog.Warn("Failed to close header watcher", slog.String("error", err.Error()))
			}
		}
		if scanDB != nil {
			if err := scanDB.Close(); err != nil {
				slog.Warn("Failed to close scan cache BadgerDB", slog.String("error", err.Error()))
			}
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting Aleutian Sync server",
		slog.String("address", addr),
		slog.String("root", *root),
	)
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printBanner(port int, root string, persistent bool) {
	persistence := "in-memory only"
	if persistent {
		persistence = "BadgerDB-backed"
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                       ALEUTIAN SYNC SERVER                        ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Header/implementation order synchronization for C/C++.           ║
║  Project root: %-50s ║
║  Scan cache:   %-50s ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Core: /scan, /implementations, /plan, /apply                 ║
║  ├── Debug: /debug/cache                                          ║
║  └── Health: /health, /ready                                      ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, root, persistence)
}
