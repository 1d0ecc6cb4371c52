// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package planner computes reorder plans: given a header's declaration
// order and the implementation blocks discovered in one source file, it
// reassembles the blocks in header order and determines the minimal
// contiguous line range to replace.
package planner

import (
	"errors"
	"strings"

	"github.com/AleutianAI/AleutianSync/services/sync/scan"
)

// ErrNothingToReorder signals a NoOp: the target file contains no
// implementation matching any header prototype. Not a failure — callers
// report it as a zero-count informational outcome.
var ErrNothingToReorder = errors.New("nothing to reorder")

// ReplacementPlan is the computed line range and replacement text used to
// reorder function bodies in one file.
//
// Description:
//
//	Range is the minimal contiguous span covering ALL matched
//	implementation blocks in the file: [min block start, max block end].
//	Any untouched code interleaved between the first and last matched
//	block is necessarily swept into the replacement and will be deleted
//	unless it also corresponds to a prototype. Callers should preview the
//	swept range before applying.
//
// Lifecycle:
//
//	Transient — consumed immediately by the apply step, never cached.
type ReplacementPlan struct {
	// File is the target file path.
	File string `json:"file"`

	// Range is the 0-based, inclusive-end line range to replace.
	Range scan.Span `json:"range"`

	// NewText is the reassembled blocks in header order, separated by a
	// blank line.
	NewText string `json:"new_text"`

	// Reordered is the number of blocks included in NewText.
	Reordered int `json:"reordered"`
}

// Planner computes replacement plans from prototypes and implementations.
//
// Overload handling:
//
//	At most one implementation per name per file is synchronized. When a
//	file defines a name more than once (legitimate overloads), the FIRST
//	discovered implementation wins; the rest are ignored. Overloads are
//	not currently distinguished — an acknowledged limitation.
//
// Thread Safety:
//
//	Planner is stateless and safe for concurrent use.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan computes the reorder plan for targetFile.
//
// Description:
//
//	Filters implementations to those found in targetFile, then walks
//	prototypes in header order appending each matched block's raw source
//	lines. Prototypes with no implementation in the file are skipped, not
//	inserted. The replacement range spans the extremes of ALL filtered
//	implementations regardless of how many were reordered.
//
// Inputs:
//
//	prototypes - Header prototypes in declaration order.
//	implementations - Discovered implementations (any file; filtered here).
//	targetFile - Path of the file to reorder.
//	fileLines - The target file's current lines (0-based).
//
// Outputs:
//
//	*ReplacementPlan - The plan, or nil on NoOp.
//	error - ErrNothingToReorder when the file has no matching
//	        implementation or no prototype matches; nil otherwise.
//
// Thread Safety: This method is safe for concurrent use.
func (p *Planner) Plan(prototypes []scan.Prototype, implementations []scan.Implementation, targetFile string, fileLines []string) (*ReplacementPlan, error) {
	var inFile []scan.Implementation
	for _, im := range implementations {
		if im.SourceFile == targetFile {
			inFile = append(inFile, im)
		}
	}
	if len(inFile) == 0 {
		return nil, ErrNothingToReorder
	}

	// First-wins lookup: at most one implementation per name per file.
	byName := make(map[string]scan.Implementation, len(inFile))
	for _, im := range inFile {
		if _, exists := byName[im.Name]; !exists {
			byName[im.Name] = im
		}
	}

	var blocks []string
	for _, proto := range prototypes {
		im, ok := byName[proto.Name]
		if !ok {
			continue
		}
		block, ok := sliceBlock(fileLines, im.Span)
		if !ok {
			continue
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, ErrNothingToReorder
	}

	// Range spans ALL filtered implementations' extremes, not only the
	// reordered ones.
	rng := inFile[0].Span
	for _, im := range inFile[1:] {
		if im.Span.Start < rng.Start {
			rng.Start = im.Span.Start
		}
		if im.Span.End > rng.End {
			rng.End = im.Span.End
		}
	}

	return &ReplacementPlan{
		File:      targetFile,
		Range:     rng,
		NewText:   strings.Join(blocks, "\n\n"),
		Reordered: len(blocks),
	}, nil
}

// sliceBlock returns the newline-joined source lines of span, or false
// when the span falls outside the file (stale implementation data).
func sliceBlock(lines []string, span scan.Span) (string, bool) {
	if !span.Valid() || span.End >= len(lines) {
		return "", false
	}
	return strings.Join(lines[span.Start:span.End+1], "\n"), true
}
