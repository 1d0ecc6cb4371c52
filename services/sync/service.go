// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sync exposes the header/implementation order synchronizer as a
// service: scan a header into prototypes, locate their implementations
// across the workspace, and compute (or apply) a reorder plan so
// definitions follow declaration order.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianSync/services/sync/cache"
	"github.com/AleutianAI/AleutianSync/services/sync/config"
	"github.com/AleutianAI/AleutianSync/services/sync/planner"
	"github.com/AleutianAI/AleutianSync/services/sync/scan"
	"github.com/AleutianAI/AleutianSync/services/sync/workspace"
)

// ServiceConfig bundles the collaborators a Service runs with.
type ServiceConfig struct {
	// Config is the loaded service configuration. Required.
	Config *config.Config

	// Store is the header scan cache. Required.
	Store cache.Store

	// ScanStore optionally persists scans across restarts. May be nil;
	// the service then operates in in-memory-only mode.
	ScanStore cache.ScanStore

	// Workspace supplies the host capabilities. Required.
	Workspace workspace.Workspace

	// ProjectRoot is the directory candidate files are enumerated under.
	// Required for FindImplementations and SynchronizeOrder.
	ProjectRoot string

	// Watcher optionally observes scanned headers for change-driven cache
	// invalidation. May be nil.
	Watcher HeaderObserver

	// Logger receives operation logs. Nil selects slog.Default().
	Logger *slog.Logger
}

// HeaderObserver registers headers for change observation. Satisfied by
// workspace.HeaderWatcher.
type HeaderObserver interface {
	Watch(headerPath string) error
}

// Service orchestrates the scan, cache, locate, and plan components.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Operations mutate no shared
//	state beyond the injected cache store, which is itself concurrent.
type Service struct {
	cfg       *config.Config
	store     cache.Store
	scans     cache.ScanStore
	ws        workspace.Workspace
	watcher   HeaderObserver
	root      string
	logger    *slog.Logger
	extractor *scan.Extractor
	locator   *scan.Locator
	planner   *planner.Planner
}

// NewService creates a Service from the given configuration.
//
// The scan heuristic windows come from cfg.Config.Heuristics, so the
// service honors configuration overrides while tests can construct the
// scan components directly with defaults.
func NewService(sc ServiceConfig) (*Service, error) {
	if sc.Config == nil {
		return nil, fmt.Errorf("sync: ServiceConfig.Config must not be nil")
	}
	if sc.Store == nil {
		return nil, fmt.Errorf("sync: ServiceConfig.Store must not be nil")
	}
	if sc.Workspace == nil {
		return nil, fmt.Errorf("sync: ServiceConfig.Workspace must not be nil")
	}

	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:     sc.Config,
		store:   sc.Store,
		scans:   sc.ScanStore,
		ws:      sc.Workspace,
		watcher: sc.Watcher,
		root:    sc.ProjectRoot,
		logger:  logger,
		extractor: scan.NewExtractor(
			scan.WithMaxStatementLines(sc.Config.Heuristics.MaxStatementLines),
		),
		locator: scan.NewLocator(
			scan.WithBraceSearchWindow(sc.Config.Heuristics.BraceSearchWindow),
			scan.WithLocatorLogger(logger),
		),
		planner: planner.NewPlanner(),
	}, nil
}

// ScanHeader extracts prototypes from the header at headerPath and caches
// them keyed by that path.
//
// Description:
//
//	The header text is read through the workspace capability, scanned,
//	and the result replaces any previous cache entry wholesale. Zero
//	prototypes is an EmptyResult, not a failure: the (empty) entry is
//	still cached and an empty slice returned.
//
// Outputs:
//
//	[]scan.Prototype - Prototypes in declaration order.
//	error - ErrNotHeader when the path fails the header extension check;
//	        otherwise only read failures.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Service) ScanHeader(ctx context.Context, headerPath string) ([]scan.Prototype, error) {
	ctx, span := startOperationSpan(ctx, "ScanHeader",
		attribute.String("header", headerPath),
	)
	defer span.End()
	start := time.Now()

	if !s.cfg.IsHeaderPath(headerPath) {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("scan_header", start, false)
		return nil, fmt.Errorf("%w: %s", ErrNotHeader, headerPath)
	}

	text, err := s.ws.ReadDocumentText(ctx, headerPath)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("scan_header", start, false)
		return nil, err
	}

	protos := s.extractor.Extract(text)
	s.store.Put(headerPath, protos)
	s.persistScan(ctx, headerPath, text, protos)
	s.observeHeader(headerPath)

	s.logger.Info("header scanned",
		slog.String("header", headerPath),
		slog.Int("prototypes", len(protos)),
	)
	prototypesExtracted.Observe(float64(len(protos)))
	setOperationSpanResult(span, len(protos), true)
	recordOperationMetrics("scan_header", start, true)

	return protos, nil
}

// FindImplementations locates implementations for the cached prototypes
// of headerPath across the configured candidate files.
//
// Description:
//
//	Prototypes come from the cache (falling back to the persistent scan
//	store when configured). Candidate files are enumerated under the
//	project root with the configured extensions, exclusions, and cap,
//	then scanned sequentially in enumeration order. Implementations are
//	transient: recomputed per call, never cached.
//
// Outputs:
//
//	[]scan.Implementation - All discovered definitions; may be empty.
//	error - ErrNotScanned when the header has no cached scan; otherwise
//	        enumeration failures or context cancellation.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Service) FindImplementations(ctx context.Context, headerPath string) ([]scan.Implementation, error) {
	ctx, span := startOperationSpan(ctx, "FindImplementations",
		attribute.String("header", headerPath),
	)
	defer span.End()
	start := time.Now()

	protos, err := s.cachedPrototypes(ctx, headerPath)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("find_implementations", start, false)
		return nil, err
	}

	impls, err := s.locateForPrototypes(ctx, protos)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("find_implementations", start, false)
		return nil, err
	}

	s.logger.Info("implementations located",
		slog.String("header", headerPath),
		slog.Int("count", len(impls)),
	)
	setOperationSpanResult(span, len(impls), true)
	recordOperationMetrics("find_implementations", start, true)

	return impls, nil
}

// SynchronizeOrder computes a replacement plan reordering targetFile's
// function definitions into the header's declaration order.
//
// Outputs:
//
//	*planner.ReplacementPlan - The plan, or nil on NoOp.
//	error - ErrNotScanned when the header has no cached scan;
//	        planner.ErrNothingToReorder when targetFile contains no
//	        matching implementation (informational, not a failure);
//	        otherwise read/enumeration failures.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Service) SynchronizeOrder(ctx context.Context, headerPath, targetFile string) (*planner.ReplacementPlan, error) {
	ctx, span := startOperationSpan(ctx, "SynchronizeOrder",
		attribute.String("header", headerPath),
		attribute.String("target", targetFile),
	)
	defer span.End()
	start := time.Now()

	protos, err := s.cachedPrototypes(ctx, headerPath)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("synchronize_order", start, false)
		return nil, err
	}

	impls, err := s.locateForPrototypes(ctx, protos)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("synchronize_order", start, false)
		return nil, err
	}

	targetText, err := s.ws.ReadDocumentText(ctx, targetFile)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("synchronize_order", start, false)
		return nil, err
	}

	plan, err := s.planner.Plan(protos, impls, targetFile, scan.SplitLines(targetText))
	if err != nil {
		// NoOp is informational: record success with zero results.
		ok := errors.Is(err, planner.ErrNothingToReorder)
		setOperationSpanResult(span, 0, ok)
		recordOperationMetrics("synchronize_order", start, ok)
		return nil, err
	}

	s.logger.Info("reorder planned",
		slog.String("header", headerPath),
		slog.String("target", targetFile),
		slog.String("range", plan.Range.String()),
		slog.Int("reordered", plan.Reordered),
	)
	setOperationSpanResult(span, plan.Reordered, true)
	recordOperationMetrics("synchronize_order", start, true)

	return plan, nil
}

// ApplyPlan commits a replacement plan through the workspace capability.
//
// Outputs:
//
//	error - Non-nil (wrapping ErrApplyFailed) when the edit could not be
//	        committed. The apply capability is all-or-nothing: on error
//	        the target file is unchanged.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Service) ApplyPlan(ctx context.Context, plan *planner.ReplacementPlan) error {
	ctx, span := startOperationSpan(ctx, "ApplyPlan",
		attribute.String("target", plan.File),
	)
	defer span.End()
	start := time.Now()

	if err := s.ws.ApplyReplacement(ctx, plan.File, plan.Range, plan.NewText); err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics("apply_plan", start, false)
		return fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}

	s.logger.Info("plan applied",
		slog.String("target", plan.File),
		slog.String("range", plan.Range.String()),
	)
	setOperationSpanResult(span, plan.Reordered, true)
	recordOperationMetrics("apply_plan", start, true)

	return nil
}

// CacheStats returns current header cache statistics.
func (s *Service) CacheStats() cache.Stats {
	return s.store.Stats()
}

// InvalidateHeader drops the cached scan for headerPath.
func (s *Service) InvalidateHeader(headerPath string) {
	s.store.Invalidate(headerPath)
}

// cachedPrototypes returns the prototypes for headerPath from the
// in-memory store, falling back to the persistent scan store (verified
// against the header's current content hash) when configured.
func (s *Service) cachedPrototypes(ctx context.Context, headerPath string) ([]scan.Prototype, error) {
	if protos, ok := s.store.Get(headerPath); ok {
		return protos, nil
	}

	if s.scans != nil {
		text, err := s.ws.ReadDocumentText(ctx, headerPath)
		if err == nil {
			protos, loadErr := s.scans.LoadScan(ctx, headerPath, cache.ContentHash(text))
			if loadErr != nil {
				s.logger.Warn("persistent scan load failed",
					slog.String("header", headerPath),
					slog.String("error", loadErr.Error()),
				)
			} else if protos != nil {
				s.store.Put(headerPath, protos)
				return protos, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotScanned, headerPath)
}

// locateForPrototypes enumerates candidates and runs the locator for the
// prototype names. An empty prototype list short-circuits before any
// enumeration or file I/O.
func (s *Service) locateForPrototypes(ctx context.Context, protos []scan.Prototype) ([]scan.Implementation, error) {
	names := uniqueNames(protos)
	if len(names) == 0 {
		return nil, nil
	}

	files, err := s.ws.EnumerateCandidateFiles(ctx, workspace.EnumerateQuery{
		Root:         s.root,
		Extensions:   s.cfg.CandidateExtensions,
		ExcludeGlobs: s.cfg.ExcludeGlobs,
		Limit:        s.cfg.FileLimit,
	})
	if err != nil {
		return nil, err
	}

	return s.locator.Locate(ctx, names, files, s.ws)
}

// persistScan saves a scan to the persistent store when configured.
// Persistence failure is non-fatal and logged at warn level.
func (s *Service) persistScan(ctx context.Context, headerPath, text string, protos []scan.Prototype) {
	if s.scans == nil {
		return
	}
	if err := s.scans.SaveScan(ctx, headerPath, cache.ContentHash(text), protos); err != nil {
		s.logger.Warn("persistent scan save failed",
			slog.String("header", headerPath),
			slog.String("error", err.Error()),
		)
	}
}

// observeHeader registers a scanned header with the watcher when one is
// configured. Watch failure is non-fatal: invalidation falls back to
// manual.
func (s *Service) observeHeader(headerPath string) {
	if s.watcher == nil {
		return
	}
	if err := s.watcher.Watch(headerPath); err != nil {
		s.logger.Warn("header watch registration failed",
			slog.String("header", headerPath),
			slog.String("error", err.Error()),
		)
	}
}

// uniqueNames returns the prototype names deduplicated, preserving first
// occurrence order (overloads declare the same name more than once).
func uniqueNames(protos []scan.Prototype) []string {
	seen := make(map[string]struct{}, len(protos))
	var names []string
	for _, p := range protos {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	return names
}
