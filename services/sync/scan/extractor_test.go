// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scan

import (
	"strings"
	"testing"
)

// Test data: representative header covering the constructs the extractor
// must recognize and skip.
const headerTestSource = `#ifndef ENGINE_H
#define ENGINE_H

#include <vector>

// Lifecycle
void init();
int compute(int x, int y);

typedef int (*callback_t)(int);
using handler_t = void (*)(int);

int accumulate(
    const std::vector<int>& values,
    int seed);

void shutdown();

#endif
`

func TestExtractor_Extract_DeclarationOrder(t *testing.T) {
	ex := NewExtractor()
	protos := ex.Extract(headerTestSource)

	want := []string{"init", "compute", "accumulate", "shutdown"}
	if len(protos) != len(want) {
		t.Fatalf("expected %d prototypes, got %d: %+v", len(want), len(protos), protos)
	}
	for i, name := range want {
		if protos[i].Name != name {
			t.Errorf("prototype[%d]: expected name %q, got %q", i, name, protos[i].Name)
		}
	}
}

func TestExtractor_Extract_SingleLinePrototypes(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
	}{
		{"simple void", "void bar();", "bar"},
		{"with params", "int foo(int a);", "foo"},
		{"pointer return", "char* name(void);", "name"},
		{"const method free decl", "int count(const Tree& t);", "count"},
		{"underscore name", "void _do_work(int n);", "_do_work"},
	}

	ex := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protos := ex.Extract(tt.line)
			if len(protos) != 1 {
				t.Fatalf("expected 1 prototype, got %d", len(protos))
			}
			if protos[0].Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, protos[0].Name)
			}
			if protos[0].Span.Start != 0 || protos[0].Span.End != 0 {
				t.Errorf("expected span 0..0, got %s", protos[0].Span)
			}
		})
	}
}

func TestExtractor_Extract_MultiLinePrototype(t *testing.T) {
	source := "int accumulate(\n    const int* values,\n    int count,\n    int seed);\n"

	ex := NewExtractor()
	protos := ex.Extract(source)

	if len(protos) != 1 {
		t.Fatalf("expected 1 prototype, got %d", len(protos))
	}
	p := protos[0]
	if p.Name != "accumulate" {
		t.Errorf("expected name accumulate, got %q", p.Name)
	}
	if p.Span.Start != 0 || p.Span.End != 3 {
		t.Errorf("expected span 0..3, got %s", p.Span)
	}
	if !strings.Contains(p.Signature, "const int* values") {
		t.Errorf("signature missing middle line: %q", p.Signature)
	}
	if strings.Count(p.Signature, "\n") != 3 {
		t.Errorf("expected full joined text, got %q", p.Signature)
	}
}

func TestExtractor_Extract_ExcludesTypedefAndUsing(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"function pointer typedef", "typedef int (*callback_t)(int code);"},
		{"using alias", "using handler_t = void (*)(int code);"},
		{"indented typedef", "  typedef void (*hook_t)(void);"},
	}

	ex := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if protos := ex.Extract(tt.line); len(protos) != 0 {
				t.Errorf("expected no prototypes, got %+v", protos)
			}
		})
	}
}

func TestExtractor_Extract_TypedefPrefixOnlyAsWholeWord(t *testing.T) {
	// A name that merely starts with "typedef" is not a typedef.
	protos := NewExtractor().Extract("int typedefCount(int x);")
	if len(protos) != 1 || protos[0].Name != "typedefCount" {
		t.Fatalf("expected typedefCount prototype, got %+v", protos)
	}
}

func TestExtractor_Extract_PreprocessorResetsBuffer(t *testing.T) {
	// The directive interrupts the accumulating statement; the dangling
	// tail must not produce a prototype.
	source := "int broken(\n#ifdef FEATURE\n    int x);\n"

	protos := NewExtractor().Extract(source)
	if len(protos) != 0 {
		t.Errorf("expected no prototypes across a directive, got %+v", protos)
	}
}

func TestExtractor_Extract_CommentHandling(t *testing.T) {
	// Leading comment lines are skipped; a comment line in the middle of
	// a statement is retained verbatim.
	source := "// doc comment\nint visible(\n// mid-statement note\n    int x);\n"

	protos := NewExtractor().Extract(source)
	if len(protos) != 1 {
		t.Fatalf("expected 1 prototype, got %d", len(protos))
	}
	if protos[0].Span.Start != 1 {
		t.Errorf("expected span to start after the doc comment at line 1, got %s", protos[0].Span)
	}
	if !strings.Contains(protos[0].Signature, "mid-statement note") {
		t.Errorf("mid-statement comment must be retained: %q", protos[0].Signature)
	}
}

func TestExtractor_Extract_BufferCapDiscardsRunaway(t *testing.T) {
	// 25 lines without a terminating semicolon, then a valid prototype.
	var b strings.Builder
	b.WriteString("int runaway(\n")
	for i := 0; i < 24; i++ {
		b.WriteString("    int arg,\n")
	}
	b.WriteString("void healthy();\n")

	protos := NewExtractor().Extract(b.String())
	if len(protos) != 1 || protos[0].Name != "healthy" {
		t.Fatalf("expected only the healthy prototype, got %+v", protos)
	}
}

func TestExtractor_Extract_DuplicateNamesPreserved(t *testing.T) {
	source := "void draw(int x);\nvoid draw(int x, int y);\n"

	protos := NewExtractor().Extract(source)
	if len(protos) != 2 {
		t.Fatalf("expected both overloads, got %d", len(protos))
	}
	if protos[0].Name != "draw" || protos[1].Name != "draw" {
		t.Errorf("expected duplicate names preserved, got %+v", protos)
	}
}

func TestExtractor_Extract_LastIdentifierMatchWins(t *testing.T) {
	// The return type produces a spurious "identifier(" match; the
	// declarator is the last one.
	protos := NewExtractor().Extract("std::function<int(int)> make_adder(int base);")
	if len(protos) != 1 {
		t.Fatalf("expected 1 prototype, got %d", len(protos))
	}
	if protos[0].Name != "make_adder" {
		t.Errorf("expected last-match name make_adder, got %q", protos[0].Name)
	}
}

func TestExtractor_Extract_NoParensNoPrototype(t *testing.T) {
	protos := NewExtractor().Extract("extern int global_counter;\n")
	if len(protos) != 0 {
		t.Errorf("expected no prototypes for a variable declaration, got %+v", protos)
	}
}

func TestExtractor_Extract_CRLFTolerated(t *testing.T) {
	protos := NewExtractor().Extract("void windows_line();\r\nint other(int a);\r\n")
	if len(protos) != 2 {
		t.Fatalf("expected 2 prototypes from CRLF input, got %d", len(protos))
	}
}

func TestPrototype_Validate(t *testing.T) {
	tests := []struct {
		name    string
		proto   Prototype
		wantErr bool
	}{
		{"valid", Prototype{Name: "foo", Span: Span{0, 2}}, false},
		{"empty name", Prototype{Name: "", Span: Span{0, 0}}, true},
		{"digit-leading name", Prototype{Name: "1foo", Span: Span{0, 0}}, true},
		{"bad span", Prototype{Name: "foo", Span: Span{3, 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.proto.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
