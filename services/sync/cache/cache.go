// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache holds scanned header prototypes between operations.
//
// The header cache used to be ambient process-wide state with an implicit
// lifecycle. It is reframed here as an explicit store owned by the
// application layer and injected into the service — which makes its
// lifetime deterministic and testable without simulating an editor
// session.
package cache

import (
	"sync"

	"github.com/AleutianAI/AleutianSync/services/sync/scan"
)

// Store maps a header path to its last-scanned ordered prototypes.
//
// Description:
//
//	Entries are replaced wholesale on rescan and never expire on their
//	own. Invalidation happens explicitly (Invalidate) or through the
//	workspace header watcher.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use.
type Store interface {
	// Put replaces the cached prototypes for headerPath.
	Put(headerPath string, prototypes []scan.Prototype)

	// Get returns the cached prototypes for headerPath, or false when the
	// header has never been scanned (or was invalidated).
	Get(headerPath string) ([]scan.Prototype, bool)

	// Invalidate drops the entry for headerPath. Dropping an absent entry
	// is a no-op.
	Invalidate(headerPath string)

	// Clear drops all entries.
	Clear()

	// Stats returns current cache statistics.
	Stats() Stats
}

// Stats contains statistics about the header cache.
type Stats struct {
	// Headers is the number of cached headers.
	Headers int `json:"headers"`

	// Prototypes is the total prototype count across all headers.
	Prototypes int `json:"prototypes"`
}

// MemoryStore is the in-memory Store implementation.
//
// Thread Safety: MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]scan.Prototype
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]scan.Prototype),
	}
}

// Put replaces the cached prototypes for headerPath. The slice is copied
// defensively; callers may keep mutating their own copy.
func (s *MemoryStore) Put(headerPath string, prototypes []scan.Prototype) {
	cloned := make([]scan.Prototype, len(prototypes))
	copy(cloned, prototypes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[headerPath] = cloned
}

// Get returns the cached prototypes for headerPath. The returned slice is
// a defensive copy and can be safely modified by the caller.
func (s *MemoryStore) Get(headerPath string) ([]scan.Prototype, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[headerPath]
	if !ok {
		return nil, false
	}

	cloned := make([]scan.Prototype, len(entry))
	copy(cloned, entry)
	return cloned, true
}

// Invalidate drops the entry for headerPath.
func (s *MemoryStore) Invalidate(headerPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, headerPath)
}

// Clear drops all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]scan.Prototype)
}

// Stats returns current cache statistics.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, entry := range s.entries {
		total += len(entry)
	}

	return Stats{
		Headers:    len(s.entries),
		Prototypes: total,
	}
}
