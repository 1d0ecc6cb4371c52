// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Invalidator receives invalidation callbacks from the header watcher.
// Satisfied by cache.Store.
type Invalidator interface {
	Invalidate(headerPath string)
}

// HeaderWatcher invalidates cached header scans when the header file
// changes on disk.
//
// Description:
//
//	A cached scan is only as good as the header text it came from. The
//	watcher observes every header registered via Watch and drops the
//	cache entry on any write, rename, or removal — the next synchronize
//	action then reports the header as unscanned instead of silently
//	planning against stale prototypes.
//
// Thread Safety: HeaderWatcher is safe for concurrent use.
type HeaderWatcher struct {
	watcher *fsnotify.Watcher
	store   Invalidator
	logger  *slog.Logger

	mu      sync.Mutex
	watched map[string]struct{}
	done    chan struct{}
}

// NewHeaderWatcher creates and starts a watcher over the given store.
//
// Outputs:
//
//	*HeaderWatcher - The running watcher. Callers must Close it.
//	error - Non-nil when the OS watch facility is unavailable.
func NewHeaderWatcher(store Invalidator, logger *slog.Logger) (*HeaderWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("header watcher: %w", err)
	}

	hw := &HeaderWatcher{
		watcher: w,
		store:   store,
		logger:  logger,
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	go hw.run()

	return hw, nil
}

// Watch registers a header path for invalidation. Watching the same path
// twice is a no-op.
func (hw *HeaderWatcher) Watch(headerPath string) error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	if _, ok := hw.watched[headerPath]; ok {
		return nil
	}
	if err := hw.watcher.Add(headerPath); err != nil {
		return fmt.Errorf("header watcher: add %q: %w", headerPath, err)
	}
	hw.watched[headerPath] = struct{}{}
	return nil
}

// forget drops a path from the watched set after the OS-level watch is
// gone, allowing a later Watch to re-add it.
func (hw *HeaderWatcher) forget(headerPath string) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	delete(hw.watched, headerPath)
}

// Close stops the watcher. Pending events are dropped.
func (hw *HeaderWatcher) Close() error {
	close(hw.done)
	return hw.watcher.Close()
}

// run drains watcher events until Close.
func (hw *HeaderWatcher) run() {
	for {
		select {
		case <-hw.done:
			return
		case event, ok := <-hw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// A rename or removal drops the OS-level watch on the file.
			// Forget the path so the next Watch re-registers it; editors
			// commonly save via write-temp-then-rename, which would
			// otherwise leave the header watched in name only.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				hw.forget(event.Name)
			}
			hw.store.Invalidate(event.Name)
			hw.logger.Debug("header changed, scan invalidated",
				slog.String("header", event.Name),
				slog.String("op", event.Op.String()),
			)
		case err, ok := <-hw.watcher.Errors:
			if !ok {
				return
			}
			hw.logger.Warn("header watcher error", slog.String("error", err.Error()))
		}
	}
}
