// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace supplies the host capabilities the sync core
// consumes: reading document text, enumerating candidate implementation
// files, and applying line-range replacements. The core never touches
// the filesystem except through these capabilities, which keeps the
// heuristic engine testable against fixture workspaces.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/AleutianSync/services/sync/scan"
)

// DefaultFileLimit is the default cap on enumerated candidate files.
const DefaultFileLimit = 200

// EnumerateQuery describes a candidate-file enumeration.
type EnumerateQuery struct {
	// Root is the directory to enumerate under.
	Root string

	// Extensions are the candidate file extensions, with leading dot
	// (".cpp", ".cc", ...). Empty matches nothing.
	Extensions []string

	// ExcludeGlobs are path-segment patterns to skip (e.g. "build",
	// "third_party", "*.generated.cpp"). Matched against each path
	// segment with filepath.Match semantics.
	ExcludeGlobs []string

	// Limit caps the result count. Zero selects DefaultFileLimit.
	Limit int
}

// Workspace is the set of host capabilities the sync core consumes.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Workspace interface {
	// ReadDocumentText returns the full text of the file at path.
	ReadDocumentText(ctx context.Context, path string) (string, error)

	// EnumerateCandidateFiles lists candidate implementation files in
	// deterministic (lexical walk) order, honoring the query's extension
	// filter, exclusions, and cap.
	EnumerateCandidateFiles(ctx context.Context, query EnumerateQuery) ([]string, error)

	// ApplyReplacement atomically substitutes the given line range in the
	// file's persisted content, then saves it. All-or-nothing: either the
	// full replacement lands or the file is unchanged.
	ApplyReplacement(ctx context.Context, path string, rng scan.Span, newText string) error
}

// FS is the filesystem-backed Workspace.
//
// Thread Safety: FS is stateless and safe for concurrent use.
type FS struct{}

// NewFS creates a filesystem-backed Workspace.
func NewFS() *FS {
	return &FS{}
}

// ReadDocumentText returns the full text of the file at path.
func (f *FS) ReadDocumentText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(data), nil
}

// EnumerateCandidateFiles lists candidate implementation files.
//
// Description:
//
//	Walks query.Root lexically (filepath.WalkDir order), skipping
//	excluded directories wholesale and excluded/foreign-extension files
//	individually. The walk stops as soon as the cap is reached — a long
//	enumeration runs to completion or fails outright, there is no
//	mid-walk cancellation beyond the context check per directory.
func (f *FS) EnumerateCandidateFiles(ctx context.Context, query EnumerateQuery) ([]string, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultFileLimit
	}

	var files []string
	err := filepath.WalkDir(query.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it, keep walking.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if excluded(query.ExcludeGlobs, d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !hasExtension(query.Extensions, path) {
			return nil
		}

		files = append(files, path)
		if len(files) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %q: %w", query.Root, err)
	}

	return files, nil
}

// ApplyReplacement atomically substitutes the given line range.
//
// Description:
//
//	The file is re-read at apply time, the range replaced, and the result
//	written to a temporary file in the same directory which is then
//	renamed over the original. Rename within one directory is atomic on
//	POSIX filesystems, satisfying the all-or-nothing contract.
func (f *FS) ApplyReplacement(ctx context.Context, path string, rng scan.Span, newText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("apply: read %q: %w", path, err)
	}

	lines := scan.SplitLines(string(data))
	if !rng.Valid() || rng.End >= len(lines) {
		return fmt.Errorf("apply: range %s outside %q (%d lines)", rng, path, len(lines))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("apply: stat %q: %w", path, err)
	}

	var out []string
	out = append(out, lines[:rng.Start]...)
	out = append(out, scan.SplitLines(newText)...)
	out = append(out, lines[rng.End+1:]...)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sync-apply-*")
	if err != nil {
		return fmt.Errorf("apply: temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.WriteString(strings.Join(out, "\n"))
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("apply: write %q: %w", path, werr)
		}
		return fmt.Errorf("apply: close %q: %w", path, cerr)
	}

	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("apply: chmod %q: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("apply: rename over %q: %w", path, err)
	}

	return nil
}

// excluded reports whether name matches any exclude glob. A malformed
// pattern never matches.
func excluded(globs []string, name string) bool {
	for _, g := range globs {
		if ok, err := filepath.Match(g, name); err == nil && ok {
			return true
		}
	}
	return false
}

// hasExtension reports whether path carries one of the candidate
// extensions (case-insensitive).
func hasExtension(extensions []string, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
