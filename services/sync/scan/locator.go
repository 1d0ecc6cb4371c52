// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"context"
	"log/slog"
	"strings"
)

// Default locator configuration values.
const (
	// DefaultBraceSearchWindow is how many lines past a signature match the
	// locator searches for the opening brace before giving up.
	DefaultBraceSearchWindow = 30
)

// DocumentReader fetches the current text of a file by path.
//
// Description:
//
//	Abstract capability supplied by the host environment (the workspace
//	package in this repo). The locator never touches the filesystem
//	directly.
type DocumentReader interface {
	// ReadDocumentText returns the full text of the file at path.
	ReadDocumentText(ctx context.Context, path string) (string, error)
}

// LocatorOptions configures Locator behavior and limits.
type LocatorOptions struct {
	// BraceSearchWindow is the forward-search window for the opening brace.
	// Default: 30
	BraceSearchWindow int

	// Logger receives per-file warnings. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultLocatorOptions returns the default options.
func DefaultLocatorOptions() LocatorOptions {
	return LocatorOptions{
		BraceSearchWindow: DefaultBraceSearchWindow,
		Logger:            slog.Default(),
	}
}

// LocatorOption is a functional option for configuring Locator.
type LocatorOption func(*LocatorOptions)

// WithBraceSearchWindow sets the opening-brace forward-search window.
func WithBraceSearchWindow(n int) LocatorOption {
	return func(o *LocatorOptions) {
		if n > 0 {
			o.BraceSearchWindow = n
		}
	}
}

// WithLocatorLogger sets the logger used for per-file warnings.
func WithLocatorLogger(logger *slog.Logger) LocatorOption {
	return func(o *LocatorOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Locator scans candidate files for function bodies matching known names.
//
// Description:
//
//	For each candidate file and each known name, the locator tests lines
//	for the literal substring "name(". A hit is confirmed as a definition
//	(not a declaration or call) by searching forward for the opening
//	brace; the body extent is then delimited with a flat brace-depth scan.
//
// Approximations (intentional, tested-against):
//
//   - The substring test has no boundary check: a name that is a substring
//     of a longer identifier can produce a false match.
//   - The brace-depth counter has no awareness of braces inside string or
//     character literals or comments, and will mis-delimit bodies whose
//     literal content is textually unbalanced.
//
// Thread Safety:
//
//	Locator is stateless between calls and safe for concurrent use.
type Locator struct {
	options LocatorOptions
}

// NewLocator creates a new Locator with the given options.
func NewLocator(opts ...LocatorOption) *Locator {
	options := DefaultLocatorOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Locator{options: options}
}

// Locate finds implementations of the named functions across candidate files.
//
// Description:
//
//	Files are read sequentially in enumeration order; emitted
//	implementations are deterministic (file-enumeration order, then line
//	order). A file that cannot be read is logged at warn level and
//	skipped — one unreadable file never aborts the overall scan.
//
// Inputs:
//
//	ctx - Context for cancellation between file reads.
//	names - Function names to search for. An empty set short-circuits:
//	        the locator returns nil without reading any file.
//	candidateFiles - File paths to scan, in enumeration order.
//	reader - Document text capability.
//
// Outputs:
//
//	[]Implementation - All discovered definitions. Duplicate names are
//	                   kept (overloads, multiple files).
//	error - Non-nil only when ctx is cancelled mid-scan.
//
// Thread Safety: This method is safe for concurrent use.
func (l *Locator) Locate(ctx context.Context, names []string, candidateFiles []string, reader DocumentReader) ([]Implementation, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var impls []Implementation
	for _, file := range candidateFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := reader.ReadDocumentText(ctx, file)
		if err != nil {
			l.options.Logger.Warn("skipping unreadable candidate file",
				slog.String("file", file),
				slog.String("error", err.Error()),
			)
			continue
		}

		impls = append(impls, l.locateInFile(names, file, SplitLines(text))...)
	}

	return impls, nil
}

// locateInFile scans a single file's lines for definitions of the known names.
func (l *Locator) locateInFile(names []string, file string, lines []string) []Implementation {
	var impls []Implementation

	for i, line := range lines {
		if lineCommentRe.MatchString(line) {
			continue
		}

		for _, name := range names {
			if !strings.Contains(line, name+"(") {
				continue
			}

			braceLine, ok := l.findOpeningBrace(lines, i)
			if !ok {
				// Plain declaration, call statement, or no body in
				// window — not a definition.
				continue
			}

			endLine, ok := findBlockEnd(lines, braceLine)
			if !ok {
				continue
			}

			impls = append(impls, Implementation{
				Name:           name,
				DefinitionLine: i,
				Span:           Span{Start: i, End: endLine},
				SourceFile:     file,
			})
		}
	}

	return impls
}

// findOpeningBrace searches forward from the signature line for the first
// line containing an opening brace, within the configured window.
//
// A line ending in ";" before any "{" aborts the search: the match was a
// plain declaration or a call statement, not a definition.
func (l *Locator) findOpeningBrace(lines []string, from int) (int, bool) {
	limit := from + l.options.BraceSearchWindow
	if limit >= len(lines) {
		limit = len(lines) - 1
	}

	for j := from; j <= limit; j++ {
		if strings.Contains(lines[j], "{") {
			return j, true
		}
		if strings.HasSuffix(strings.TrimRight(lines[j], " \t"), ";") {
			return 0, false
		}
	}

	return 0, false
}

// findBlockEnd delimits a brace block with a flat character-by-character
// depth scan starting at the line carrying the opening brace. The end line
// is the first line where depth returns to exactly zero after having been
// positive at least once.
func findBlockEnd(lines []string, braceLine int) (int, bool) {
	depth := 0
	opened := false

	for j := braceLine; j < len(lines); j++ {
		for _, c := range lines[j] {
			switch c {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
			if opened && depth == 0 {
				return j, true
			}
		}
	}

	return 0, false
}
