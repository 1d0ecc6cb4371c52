// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package planner

import (
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianSync/services/sync/scan"
)

func protoList(names ...string) []scan.Prototype {
	protos := make([]scan.Prototype, len(names))
	for i, n := range names {
		protos[i] = scan.Prototype{Name: n, Signature: n + "();", Span: scan.Span{Start: i, End: i}}
	}
	return protos
}

func impl(name, file string, start, end int) scan.Implementation {
	return scan.Implementation{
		Name:           name,
		DefinitionLine: start,
		Span:           scan.Span{Start: start, End: end},
		SourceFile:     file,
	}
}

func TestPlanner_Plan_HeaderOrderReassembly(t *testing.T) {
	// Header declares a, b, c; the file defines them as b, a, c.
	fileLines := []string{
		"void b() {", //  0
		"    // b",   //  1
		"}",          //  2
		"",           //  3
		"void a() {", //  4
		"    // a",   //  5
		"}",          //  6
		"",           //  7
		"void c() {", //  8
		"    // c",   //  9
		"}",          // 10
	}
	impls := []scan.Implementation{
		impl("b", "x.cpp", 0, 2),
		impl("a", "x.cpp", 4, 6),
		impl("c", "x.cpp", 8, 10),
	}

	plan, err := NewPlanner().Plan(protoList("a", "b", "c"), impls, "x.cpp", fileLines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Reordered != 3 {
		t.Errorf("expected 3 reordered blocks, got %d", plan.Reordered)
	}
	if plan.Range.Start != 0 || plan.Range.End != 10 {
		t.Errorf("expected range 0..10, got %s", plan.Range)
	}

	want := "void a() {\n    // a\n}\n\nvoid b() {\n    // b\n}\n\nvoid c() {\n    // c\n}"
	if plan.NewText != want {
		t.Errorf("blocks not in header order:\ngot:\n%s\nwant:\n%s", plan.NewText, want)
	}
}

func TestPlanner_Plan_NoOpCases(t *testing.T) {
	fileLines := []string{"void unrelated() {", "}"}

	tests := []struct {
		name   string
		protos []scan.Prototype
		impls  []scan.Implementation
	}{
		{"no impls at all", protoList("a"), nil},
		{"impls only in other files", protoList("a"), []scan.Implementation{impl("a", "other.cpp", 0, 1)}},
		{"no proto matches file impls", protoList("a"), []scan.Implementation{impl("z", "x.cpp", 0, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlanner().Plan(tt.protos, tt.impls, "x.cpp", fileLines)
			if !errors.Is(err, ErrNothingToReorder) {
				t.Fatalf("expected ErrNothingToReorder, got plan=%+v err=%v", plan, err)
			}
			if plan != nil {
				t.Errorf("expected nil plan on NoOp, got %+v", plan)
			}
		})
	}
}

func TestPlanner_Plan_FirstImplementationWins(t *testing.T) {
	fileLines := []string{
		"void a() { /* first */ }",  // 0
		"void a() { /* second */ }", // 1
	}
	impls := []scan.Implementation{
		impl("a", "x.cpp", 0, 0),
		impl("a", "x.cpp", 1, 1),
	}

	plan, err := NewPlanner().Plan(protoList("a"), impls, "x.cpp", fileLines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Reordered != 1 {
		t.Errorf("expected 1 block, got %d", plan.Reordered)
	}
	if !strings.Contains(plan.NewText, "first") || strings.Contains(plan.NewText, "second") {
		t.Errorf("expected the first discovered overload only, got %q", plan.NewText)
	}
	// Both overloads still bound the replacement range.
	if plan.Range.Start != 0 || plan.Range.End != 1 {
		t.Errorf("expected range 0..1 over all matched impls, got %s", plan.Range)
	}
}

func TestPlanner_Plan_RangeSweepsInterleavedCode(t *testing.T) {
	// A helper not declared in the header sits between the matched blocks;
	// the range sweeps over it.
	fileLines := []string{
		"void b() {",      // 0
		"}",               // 1
		"",                // 2
		"static int h() {", // 3
		"    return 1;",   // 4
		"}",               // 5
		"",                // 6
		"void a() {",      // 7
		"}",               // 8
	}
	impls := []scan.Implementation{
		impl("b", "x.cpp", 0, 1),
		impl("a", "x.cpp", 7, 8),
	}

	plan, err := NewPlanner().Plan(protoList("a", "b"), impls, "x.cpp", fileLines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Range.Start != 0 || plan.Range.End != 8 {
		t.Errorf("expected sweep range 0..8, got %s", plan.Range)
	}
	if strings.Contains(plan.NewText, "return 1;") {
		t.Errorf("undeclared helper must not be reassembled, got %q", plan.NewText)
	}
	if plan.Reordered != 2 {
		t.Errorf("expected 2 blocks, got %d", plan.Reordered)
	}
}

func TestPlanner_Plan_MissingImplementationsSkipped(t *testing.T) {
	fileLines := []string{"void b() {", "}"}
	impls := []scan.Implementation{impl("b", "x.cpp", 0, 1)}

	// "a" has no implementation in the file; no placeholder is inserted.
	plan, err := NewPlanner().Plan(protoList("a", "b"), impls, "x.cpp", fileLines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Reordered != 1 {
		t.Errorf("expected only the present block, got %d", plan.Reordered)
	}
	if plan.NewText != "void b() {\n}" {
		t.Errorf("unexpected text: %q", plan.NewText)
	}
}

func TestPlanner_Plan_StaleSpanSkipped(t *testing.T) {
	// The implementation span points past the current file contents.
	fileLines := []string{"void a() {", "}"}
	impls := []scan.Implementation{impl("a", "x.cpp", 5, 9)}

	plan, err := NewPlanner().Plan(protoList("a"), impls, "x.cpp", fileLines)
	if !errors.Is(err, ErrNothingToReorder) {
		t.Fatalf("expected ErrNothingToReorder for stale spans, got plan=%+v err=%v", plan, err)
	}
}
