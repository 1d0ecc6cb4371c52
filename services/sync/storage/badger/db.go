// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger wraps BadgerDB for service-local persistence.
//
// BadgerDB is embedded — no network call, no availability dependency —
// which makes it the right store for service infrastructure data (cached
// header scans) as opposed to user data.
package badger

import (
	"fmt"
	"log/slog"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// Config holds the options for opening a DB.
type Config struct {
	// Path is the directory for the BadgerDB value log and LSM tree.
	// Ignored when InMemory is true.
	Path string

	// InMemory opens a purely in-memory DB. Used by tests.
	InMemory bool

	// Logger receives BadgerDB's internal log output. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Logger: slog.Default(),
	}
}

// DB is a thin wrapper around a BadgerDB handle.
//
// Thread Safety: DB is safe for concurrent use.
type DB struct {
	inner *dgbadger.DB
}

// OpenDB opens (creating if necessary) the BadgerDB at cfg.Path.
//
// Outputs:
//
//	*DB - The open handle.
//	error - Non-nil when the directory cannot be created or the DB is
//	        locked by another process.
func OpenDB(cfg Config) (*DB, error) {
	var opts dgbadger.Options
	if cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger: path must not be empty")
		}
		opts = dgbadger.DefaultOptions(cfg.Path)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithLogger(slogAdapter{logger: logger})

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %q: %w", cfg.Path, err)
	}

	return &DB{inner: db}, nil
}

// Badger exposes the underlying handle for transaction helpers.
func (d *DB) Badger() *dgbadger.DB {
	return d.inner
}

// Close flushes and closes the DB.
func (d *DB) Close() error {
	return d.inner.Close()
}

// slogAdapter bridges BadgerDB's Logger interface onto slog. Badger logs
// at INFO/DEBUG during compaction; those land at debug level to keep
// service logs quiet.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...interface{}) {
	a.logger.Error(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Infof(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf("badger: "+format, args...))
}
