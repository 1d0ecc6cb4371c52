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
	"regexp"
	"strings"
)

// Default extractor configuration values.
const (
	// DefaultMaxStatementLines is the maximum number of lines a candidate
	// statement may accumulate before it is discarded. Guards against
	// runaway accumulation on malformed input, e.g. inside large macro
	// bodies not caught by the preprocessor check.
	DefaultMaxStatementLines = 20
)

var (
	// preprocessorRe matches preprocessor directives. Directives never
	// contribute to or terminate a prototype; they reset the statement
	// buffer entirely.
	preprocessorRe = regexp.MustCompile(`^\s*#`)

	// lineCommentRe matches comment-only lines.
	lineCommentRe = regexp.MustCompile(`^\s*//`)

	// callTokenRe matches an identifier immediately followed by an opening
	// parenthesis. Used for declarator name extraction.
	callTokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\(`)

	// nonDeclarationRe matches statements that end in a semicolon and
	// contain parentheses but are not function declarations: typedefs
	// (function-pointer typedefs in particular) and using-aliases.
	nonDeclarationRe = regexp.MustCompile(`^\s*(typedef|using)\b`)
)

// ExtractorOptions configures Extractor behavior and limits.
type ExtractorOptions struct {
	// MaxStatementLines is the statement buffer cap.
	// Default: 20
	MaxStatementLines int
}

// DefaultExtractorOptions returns the default options.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		MaxStatementLines: DefaultMaxStatementLines,
	}
}

// ExtractorOption is a functional option for configuring Extractor.
type ExtractorOption func(*ExtractorOptions)

// WithMaxStatementLines sets the statement buffer cap.
func WithMaxStatementLines(n int) ExtractorOption {
	return func(o *ExtractorOptions) {
		if n > 0 {
			o.MaxStatementLines = n
		}
	}
}

// Extractor extracts function prototypes from C/C++ header text.
//
// Description:
//
//	The extractor processes header text line by line, accumulating a
//	"current candidate statement" buffer. A statement terminates when a
//	line ends with a semicolon; the joined statement is accepted as a
//	prototype when it contains a parenthesized parameter list and is not
//	a typedef or using-alias.
//
// Approximations (intentional, tested-against):
//
//   - Mid-statement comment lines are retained verbatim; stripping them
//     would break column offsets, and the heuristics cannot do so safely.
//   - The declarator name is the LAST "identifier(" token in the joined
//     statement. Leading return-type tokens and nested parenthesized
//     specifiers produce spurious earlier matches; last-match is the
//     tie-break that favors the token closest to the actual declarator.
//   - Multiple declarations on one line beyond the simple case are not
//     handled.
//
// Thread Safety:
//
//	Extractor is stateless between calls and safe for concurrent use.
type Extractor struct {
	options ExtractorOptions
}

// NewExtractor creates a new Extractor with the given options.
//
// Example:
//
//	ex := scan.NewExtractor()
//	protos := ex.Extract(headerText)
func NewExtractor(opts ...ExtractorOption) *Extractor {
	options := DefaultExtractorOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Extractor{options: options}
}

// Extract returns the ordered sequence of prototypes declared in text.
//
// Description:
//
//	Output order equals header declaration order. Duplicate names
//	(overloads) are preserved as separate entries, not deduplicated.
//	Malformed input never produces an error — unrecognized constructs
//	are simply skipped (under-approximation by design).
//
// Inputs:
//
//	text - Raw header text. Line endings may be LF or CRLF.
//
// Outputs:
//
//	[]Prototype - Prototypes in declaration order. Nil when none found.
//
// Thread Safety: This method is safe for concurrent use.
func (e *Extractor) Extract(text string) []Prototype {
	lines := SplitLines(text)

	var protos []Prototype
	var buffer []string
	bufferStart := -1

	reset := func() {
		buffer = buffer[:0]
		bufferStart = -1
	}

	for i, line := range lines {
		// Preprocessor directives reset the statement buffer and are
		// themselves skipped.
		if preprocessorRe.MatchString(line) {
			reset()
			continue
		}

		// Comment-only lines are skipped only while the buffer is empty.
		// A mid-statement comment line is retained verbatim.
		if len(buffer) == 0 && lineCommentRe.MatchString(line) {
			continue
		}

		if len(buffer) == 0 {
			bufferStart = i
		}
		buffer = append(buffer, line)

		if !strings.HasSuffix(strings.TrimRight(line, " \t"), ";") {
			// Safety valve: discard runaway statements.
			if len(buffer) > e.options.MaxStatementLines {
				reset()
			}
			continue
		}

		// Candidate statement complete.
		joined := strings.TrimSpace(strings.Join(buffer, "\n"))
		start := bufferStart
		reset()

		if !strings.Contains(joined, "(") || !strings.Contains(joined, ")") {
			continue
		}
		if nonDeclarationRe.MatchString(joined) {
			continue
		}

		name := declaratorName(joined)
		if name == "" {
			continue
		}

		protos = append(protos, Prototype{
			Name:      name,
			Signature: joined,
			Span:      Span{Start: start, End: i},
		})
	}

	return protos
}

// declaratorName extracts the declared function name from a joined
// statement: the last "identifier(" token with the parenthesis stripped.
// Returns "" when the statement contains no such token.
func declaratorName(statement string) string {
	matches := callTokenRe.FindAllString(statement, -1)
	if len(matches) == 0 {
		return ""
	}
	last := matches[len(matches)-1]
	return strings.TrimSpace(strings.TrimSuffix(last, "("))
}

// SplitLines splits text into lines, tolerating LF and CRLF endings.
// The trailing carriage return of CRLF lines is stripped so suffix
// checks (";", "{") behave identically on both.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
