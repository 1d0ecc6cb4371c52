// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

// =============================================================================
// ScanStore — Scan Persistence
// =============================================================================
//
// Header scans are cheap individually but a large workspace accumulates
// hundreds of them, and losing the whole cache on every service restart
// forces the user to rescan before any synchronize action. This store
// persists scans in BadgerDB between restarts.
//
// Design choices:
//
//	1. Content hash as staleness check: each persisted entry records
//	   SHA256 of the header text it was scanned from. A load with a
//	   different hash is a miss — the header changed on disk while the
//	   service was down. No mtime comparison is needed.
//
//	2. BadgerDB native TTL: 7-day expiry is enforced by BadgerDB's GC,
//	   not by application code. Expired keys return ErrKeyNotFound, which
//	   the store treats as a cache miss.
//
//	3. Nil-safety: the Service checks for a nil ScanStore and skips
//	   persistence, operating in in-memory-only mode. This is the correct
//	   behavior for tests and for deployments without a cache directory.
//
// Storage layout:
//
//	sync/scan/v1/{sha256(headerPath)}  →  gob-encoded persistedScan
//	                                      TTL: 7 days

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianSync/services/sync/scan"
	badgerstore "github.com/AleutianAI/AleutianSync/services/sync/storage/badger"
)

// scanStoreDefaultTTL is the default lifetime of a persisted scan entry.
// 7 days is long enough to survive weekends and short deployments without
// accumulating stale data indefinitely.
const scanStoreDefaultTTL = 7 * 24 * time.Hour

// scanStoreKeyPrefix is prepended to the header-path hash to form the
// BadgerDB key. Versioned (v1) to allow future format changes without
// collision.
const scanStoreKeyPrefix = "sync/scan/v1/"

// ScanStore persists header scans across service restarts.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ScanStore interface {
	// LoadScan retrieves the persisted prototypes for headerPath, provided
	// the stored content hash matches contentHash.
	//
	// Returns (nil, nil) on cache miss (key absent, TTL expired, or the
	// header content changed). Returns (nil, error) on storage failure.
	LoadScan(ctx context.Context, headerPath, contentHash string) ([]scan.Prototype, error)

	// SaveScan persists the prototypes for headerPath together with the
	// content hash of the text they were extracted from. The store applies
	// a 7-day TTL automatically.
	//
	// Returns non-nil error only on storage failure. The caller logs the
	// error as a warning and continues — persistence failure is non-fatal.
	SaveScan(ctx context.Context, headerPath, contentHash string, prototypes []scan.Prototype) error
}

// persistedScan is the gob-encoded BadgerDB value.
type persistedScan struct {
	ContentHash string
	Prototypes  []scan.Prototype
}

// BadgerScanStore is the BadgerDB-backed ScanStore.
//
// Thread Safety: BadgerScanStore is safe for concurrent use.
type BadgerScanStore struct {
	db     *badgerstore.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewBadgerScanStore creates a store over the given DB.
//
// Inputs:
//
//	db - The open BadgerDB handle. Must not be nil.
//	ttl - Entry lifetime. Zero selects the 7-day default.
//	logger - Logger for storage warnings. Nil selects slog.Default().
func NewBadgerScanStore(db *badgerstore.DB, ttl time.Duration, logger *slog.Logger) *BadgerScanStore {
	if ttl <= 0 {
		ttl = scanStoreDefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerScanStore{db: db, ttl: ttl, logger: logger}
}

// ContentHash returns the hex SHA256 digest of header text, the staleness
// key used by LoadScan/SaveScan.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// scanKey derives the BadgerDB key for headerPath.
func scanKey(headerPath string) []byte {
	sum := sha256.Sum256([]byte(headerPath))
	return []byte(scanStoreKeyPrefix + hex.EncodeToString(sum[:]))
}

// LoadScan retrieves the persisted prototypes for headerPath.
func (s *BadgerScanStore) LoadScan(ctx context.Context, headerPath, contentHash string) ([]scan.Prototype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := s.db.Badger().View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get(scanKey(headerPath))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan store: load %q: %w", headerPath, err)
	}

	var entry persistedScan
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&entry); err != nil {
		// A corrupt entry is a miss, not a failure: the scan will simply
		// be recomputed and the entry overwritten.
		s.logger.Warn("scan store: dropping undecodable entry",
			slog.String("header", headerPath),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	if entry.ContentHash != contentHash {
		return nil, nil
	}

	return entry.Prototypes, nil
}

// SaveScan persists the prototypes for headerPath.
func (s *BadgerScanStore) SaveScan(ctx context.Context, headerPath, contentHash string, prototypes []scan.Prototype) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	entry := persistedScan{ContentHash: contentHash, Prototypes: prototypes}
	if err := gob.NewEncoder(&buf).Encode(&entry); err != nil {
		return fmt.Errorf("scan store: encode %q: %w", headerPath, err)
	}

	err := s.db.Badger().Update(func(txn *dgbadger.Txn) error {
		e := dgbadger.NewEntry(scanKey(headerPath), buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("scan store: save %q: %w", headerPath, err)
	}

	return nil
}
