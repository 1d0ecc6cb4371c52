// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/AleutianSync/services/sync/cache"
	"github.com/AleutianAI/AleutianSync/services/sync/config"
	"github.com/AleutianAI/AleutianSync/services/sync/planner"
	badgerstore "github.com/AleutianAI/AleutianSync/services/sync/storage/badger"
	"github.com/AleutianAI/AleutianSync/services/sync/workspace"
)

const testHeaderSource = `#ifndef ENGINE_H
#define ENGINE_H

void init();
int compute(int x);
void shutdown();

#endif
`

const testImplSource = `#include "engine.h"

void shutdown() {
    // teardown
}

int compute(int x) {
    return x * 2;
}

void init() {
    // setup
}
`

func testConfig() *config.Config {
	return &config.Config{
		CandidateExtensions: []string{".cpp", ".cc"},
		HeaderExtensions:    []string{".h", ".hpp"},
		ExcludeGlobs:        []string{".*", "build"},
		FileLimit:           config.DefaultFileLimit,
		Heuristics: config.Heuristics{
			MaxStatementLines: config.DefaultMaxStatementLines,
			BraceSearchWindow: config.DefaultBraceSearchWindow,
		},
	}
}

// newTestService builds a service over a throwaway project directory
// containing engine.h and engine.cpp.
func newTestService(t *testing.T) (*Service, string, string) {
	t.Helper()

	root := t.TempDir()
	header := filepath.Join(root, "engine.h")
	impl := filepath.Join(root, "engine.cpp")
	if err := os.WriteFile(header, []byte(testHeaderSource), 0o644); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := os.WriteFile(impl, []byte(testImplSource), 0o644); err != nil {
		t.Fatalf("write impl: %v", err)
	}

	svc, err := NewService(ServiceConfig{
		Config:      testConfig(),
		Store:       cache.NewMemoryStore(),
		Workspace:   workspace.NewFS(),
		ProjectRoot: root,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return svc, header, impl
}

func TestNewService_RequiredCollaborators(t *testing.T) {
	tests := []struct {
		name string
		sc   ServiceConfig
	}{
		{"nil config", ServiceConfig{Store: cache.NewMemoryStore(), Workspace: workspace.NewFS()}},
		{"nil store", ServiceConfig{Config: testConfig(), Workspace: workspace.NewFS()}},
		{"nil workspace", ServiceConfig{Config: testConfig(), Store: cache.NewMemoryStore()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(tt.sc); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

func TestService_ScanHeader(t *testing.T) {
	svc, header, _ := newTestService(t)

	protos, err := svc.ScanHeader(context.Background(), header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"init", "compute", "shutdown"}
	if len(protos) != len(want) {
		t.Fatalf("expected %d prototypes, got %d", len(want), len(protos))
	}
	for i, name := range want {
		if protos[i].Name != name {
			t.Errorf("prototype[%d]: expected %q, got %q", i, name, protos[i].Name)
		}
	}

	stats := svc.CacheStats()
	if stats.Headers != 1 || stats.Prototypes != 3 {
		t.Errorf("unexpected cache stats: %+v", stats)
	}
}

func TestService_ScanHeader_NotAHeader(t *testing.T) {
	svc, _, impl := newTestService(t)

	_, err := svc.ScanHeader(context.Background(), impl)
	if !errors.Is(err, ErrNotHeader) {
		t.Fatalf("expected ErrNotHeader, got %v", err)
	}
}

func TestService_ScanHeader_EmptyHeaderCached(t *testing.T) {
	svc, _, _ := newTestService(t)
	root := t.TempDir()
	empty := filepath.Join(root, "empty.h")
	if err := os.WriteFile(empty, []byte("#pragma once\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	protos, err := svc.ScanHeader(context.Background(), empty)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(protos) != 0 {
		t.Errorf("expected no prototypes, got %+v", protos)
	}

	// The empty result is still a cache entry.
	if svc.CacheStats().Headers != 1 {
		t.Errorf("empty scan must be cached, stats: %+v", svc.CacheStats())
	}
}

func TestService_FindImplementations(t *testing.T) {
	svc, header, impl := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ScanHeader(ctx, header); err != nil {
		t.Fatalf("scan: %v", err)
	}

	impls, err := svc.FindImplementations(ctx, header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(impls) != 3 {
		t.Fatalf("expected 3 implementations, got %d: %+v", len(impls), impls)
	}
	for _, im := range impls {
		if im.SourceFile != impl {
			t.Errorf("expected source file %s, got %s", impl, im.SourceFile)
		}
	}
	// File order: shutdown, compute, init.
	if impls[0].Name != "shutdown" || impls[2].Name != "init" {
		t.Errorf("expected file-order results, got %+v", impls)
	}
}

func TestService_FindImplementations_NotScanned(t *testing.T) {
	svc, header, _ := newTestService(t)

	_, err := svc.FindImplementations(context.Background(), header)
	if !errors.Is(err, ErrNotScanned) {
		t.Fatalf("expected ErrNotScanned, got %v", err)
	}
}

func TestService_SynchronizeOrder_EndToEnd(t *testing.T) {
	svc, header, impl := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ScanHeader(ctx, header); err != nil {
		t.Fatalf("scan: %v", err)
	}

	plan, err := svc.SynchronizeOrder(ctx, header, impl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Reordered != 3 {
		t.Errorf("expected 3 reordered blocks, got %d", plan.Reordered)
	}

	if err := svc.ApplyPlan(ctx, plan); err != nil {
		t.Fatalf("apply: %v", err)
	}

	data, err := os.ReadFile(impl)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := `#include "engine.h"

void init() {
    // setup
}

int compute(int x) {
    return x * 2;
}

void shutdown() {
    // teardown
}
`
	if string(data) != want {
		t.Errorf("file not in declaration order:\ngot:\n%s\nwant:\n%s", string(data), want)
	}
}

func TestService_SynchronizeOrder_NoOp(t *testing.T) {
	svc, header, _ := newTestService(t)
	ctx := context.Background()

	root := t.TempDir()
	unrelated := filepath.Join(root, "other.cpp")
	if err := os.WriteFile(unrelated, []byte("void helper() {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := svc.ScanHeader(ctx, header); err != nil {
		t.Fatalf("scan: %v", err)
	}

	_, err := svc.SynchronizeOrder(ctx, header, unrelated)
	if !errors.Is(err, planner.ErrNothingToReorder) {
		t.Fatalf("expected ErrNothingToReorder, got %v", err)
	}
}

func TestService_InvalidateHeader(t *testing.T) {
	svc, header, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ScanHeader(ctx, header); err != nil {
		t.Fatalf("scan: %v", err)
	}
	svc.InvalidateHeader(header)

	if _, err := svc.FindImplementations(ctx, header); !errors.Is(err, ErrNotScanned) {
		t.Fatalf("expected ErrNotScanned after invalidation, got %v", err)
	}
}

func TestService_PersistentScanFallback(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := badgerstore.OpenDB(badgerstore.Config{InMemory: true, Logger: quiet})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	scans := cache.NewBadgerScanStore(db, 0, quiet)

	root := t.TempDir()
	header := filepath.Join(root, "engine.h")
	impl := filepath.Join(root, "engine.cpp")
	if err := os.WriteFile(header, []byte(testHeaderSource), 0o644); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := os.WriteFile(impl, []byte(testImplSource), 0o644); err != nil {
		t.Fatalf("write impl: %v", err)
	}

	newSvc := func() *Service {
		svc, err := NewService(ServiceConfig{
			Config:      testConfig(),
			Store:       cache.NewMemoryStore(),
			ScanStore:   scans,
			Workspace:   workspace.NewFS(),
			ProjectRoot: root,
			Logger:      quiet,
		})
		if err != nil {
			t.Fatalf("NewService: %v", err)
		}
		return svc
	}

	ctx := context.Background()
	if _, err := newSvc().ScanHeader(ctx, header); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// A fresh service (empty memory store) recovers the scan from the
	// persistent store without an explicit rescan.
	impls, err := newSvc().FindImplementations(ctx, header)
	if err != nil {
		t.Fatalf("expected persistent fallback, got %v", err)
	}
	if len(impls) != 3 {
		t.Errorf("expected 3 implementations, got %d", len(impls))
	}

	// Changing the header on disk invalidates the persisted scan.
	if err := os.WriteFile(header, []byte("void renamed();\n"), 0o644); err != nil {
		t.Fatalf("rewrite header: %v", err)
	}
	if _, err := newSvc().FindImplementations(ctx, header); !errors.Is(err, ErrNotScanned) {
		t.Fatalf("expected ErrNotScanned after content change, got %v", err)
	}
}
