// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sync

import (
	"github.com/AleutianAI/AleutianSync/services/sync/planner"
	"github.com/AleutianAI/AleutianSync/services/sync/scan"
)

// ErrorResponse is the JSON error envelope for all endpoints.
type ErrorResponse struct {
	// Error is the human-readable reason.
	Error string `json:"error"`

	// Code is the machine-readable error code.
	Code string `json:"code"`
}

// ScanRequest is the body of POST /v1/sync/scan.
type ScanRequest struct {
	// HeaderPath is the header file to scan.
	HeaderPath string `json:"header_path" binding:"required"`
}

// PrototypeInfo is the wire form of a scan.Prototype.
type PrototypeInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// PrototypeInfoFromScan converts a scan.Prototype for the wire.
func PrototypeInfoFromScan(p scan.Prototype) PrototypeInfo {
	return PrototypeInfo{
		Name:      p.Name,
		Signature: p.Signature,
		StartLine: p.Span.Start,
		EndLine:   p.Span.End,
	}
}

// ScanResponse is the body of a successful scan.
type ScanResponse struct {
	HeaderPath string          `json:"header_path"`
	Count      int             `json:"count"`
	Prototypes []PrototypeInfo `json:"prototypes"`
}

// ImplementationsRequest is the body of POST /v1/sync/implementations.
type ImplementationsRequest struct {
	// HeaderPath is a previously scanned header.
	HeaderPath string `json:"header_path" binding:"required"`
}

// ImplementationInfo is the wire form of a scan.Implementation.
type ImplementationInfo struct {
	Name           string `json:"name"`
	SourceFile     string `json:"source_file"`
	DefinitionLine int    `json:"definition_line"`
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
}

// ImplementationInfoFromScan converts a scan.Implementation for the wire.
func ImplementationInfoFromScan(im scan.Implementation) ImplementationInfo {
	return ImplementationInfo{
		Name:           im.Name,
		SourceFile:     im.SourceFile,
		DefinitionLine: im.DefinitionLine,
		StartLine:      im.Span.Start,
		EndLine:        im.Span.End,
	}
}

// ImplementationsResponse is the body of a successful locate.
type ImplementationsResponse struct {
	HeaderPath      string               `json:"header_path"`
	Count           int                  `json:"count"`
	Implementations []ImplementationInfo `json:"implementations"`
}

// PlanRequest is the body of POST /v1/sync/plan and POST /v1/sync/apply.
type PlanRequest struct {
	// HeaderPath is a previously scanned header.
	HeaderPath string `json:"header_path" binding:"required"`

	// TargetFile is the implementation file to reorder.
	TargetFile string `json:"target_file" binding:"required"`
}

// PlanResponse is the body of a plan or apply response.
//
// NoOp is true when the target file contains no implementation matching
// any header prototype; the remaining fields are then zero.
type PlanResponse struct {
	File      string `json:"file,omitempty"`
	NoOp      bool   `json:"noop"`
	Applied   bool   `json:"applied"`
	Reordered int    `json:"reordered"`
	Range     *struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"range,omitempty"`
	NewText string `json:"new_text,omitempty"`
}

// PlanResponseFromPlan converts a planner.ReplacementPlan for the wire.
func PlanResponseFromPlan(plan *planner.ReplacementPlan, applied bool) PlanResponse {
	resp := PlanResponse{
		File:      plan.File,
		Applied:   applied,
		Reordered: plan.Reordered,
		NewText:   plan.NewText,
	}
	resp.Range = &struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}{Start: plan.Range.Start, End: plan.Range.End}
	return resp
}
