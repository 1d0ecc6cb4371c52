// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scan implements the heuristic text-analysis core: prototype
// extraction from C/C++ header text and implementation discovery across
// candidate source files.
//
// The package deliberately does NOT parse C/C++. All structure recovery
// (statement boundaries, function bodies) is done with line-oriented
// heuristics that are cheap, local, and require no build-system
// integration. The approximations are documented on each routine and are
// part of the contract — callers and tests depend on the exact heuristic
// decisions.
package scan

import (
	"errors"
	"fmt"
)

// Sentinel errors for the scan package.
var (
	// ErrInvalidPrototype indicates a prototype failed validation.
	ErrInvalidPrototype = errors.New("invalid prototype")

	// ErrInvalidImplementation indicates an implementation failed validation.
	ErrInvalidImplementation = errors.New("invalid implementation")
)

// Span is an inclusive start/end line range identifying a contiguous text
// block. Lines are 0-based throughout the service; End is inclusive.
type Span struct {
	// Start is the 0-based first line of the block.
	Start int `json:"start"`

	// End is the 0-based last line of the block, inclusive.
	End int `json:"end"`
}

// Valid reports whether the span is well-formed (non-negative, ordered).
func (s Span) Valid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Lines returns the number of lines covered by the span.
func (s Span) Lines() int {
	return s.End - s.Start + 1
}

// String returns a compact "start..end" representation for logging.
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Prototype is a parsed function declaration extracted from header text.
//
// Description:
//
//	One Prototype is emitted per declared function found in a header.
//	Ordering among Prototypes for a given header is significant and equals
//	textual declaration order. Duplicate names (overloads) are preserved
//	as separate entries.
//
// Ownership:
//
//	Prototypes are immutable after extraction. They are owned by the
//	per-header cache and replaced wholesale on re-scan.
type Prototype struct {
	// Name is the declared function name. Always a non-empty, syntactically
	// valid C identifier.
	Name string `json:"name"`

	// Signature is the raw multi-line declaration text, newline-joined and
	// trimmed, including the terminating semicolon.
	Signature string `json:"signature"`

	// Span covers the declaration's source lines in the header.
	Span Span `json:"span"`
}

// Validate checks the prototype's structural invariants.
//
// Outputs:
//
//	error - Non-nil (wrapping ErrInvalidPrototype) if the name is empty,
//	        not a valid identifier, or the span is malformed.
func (p *Prototype) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPrototype)
	}
	if !isIdentifier(p.Name) {
		return fmt.Errorf("%w: name %q is not an identifier", ErrInvalidPrototype, p.Name)
	}
	if !p.Span.Valid() {
		return fmt.Errorf("%w: span %s", ErrInvalidPrototype, p.Span)
	}
	return nil
}

// Implementation is a parsed function definition (body) located in a
// candidate source file.
//
// Description:
//
//	One Implementation is emitted per discovered function body matching a
//	known name. Multiple Implementations may share a name (overloads, or
//	the same name defined in multiple files); consumers must tolerate
//	duplicates. Implementations are transient — recomputed per query,
//	never cached.
//
// Invariant:
//
//	Span always forms a balanced brace region [DefinitionLine, Span.End]
//	with brace depth returning to zero exactly once, at Span.End.
type Implementation struct {
	// Name is the matched function name.
	Name string `json:"name"`

	// DefinitionLine is the 0-based line where the signature match occurred.
	// Always equals Span.Start.
	DefinitionLine int `json:"definition_line"`

	// Span covers the full definition from signature line to the line
	// carrying the function's own closing brace.
	Span Span `json:"span"`

	// SourceFile is the path of the file the definition was found in.
	SourceFile string `json:"source_file"`
}

// Validate checks the implementation's structural invariants.
func (im *Implementation) Validate() error {
	if im.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidImplementation)
	}
	if im.SourceFile == "" {
		return fmt.Errorf("%w: empty source file", ErrInvalidImplementation)
	}
	if !im.Span.Valid() {
		return fmt.Errorf("%w: span %s", ErrInvalidImplementation, im.Span)
	}
	if im.DefinitionLine != im.Span.Start {
		return fmt.Errorf("%w: definition line %d outside span %s",
			ErrInvalidImplementation, im.DefinitionLine, im.Span)
	}
	return nil
}

// isIdentifier reports whether s is a syntactically valid C identifier:
// letter or underscore, followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
