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

import "errors"

// Error taxonomy.
//
// UserInputError (ErrNotHeader, ErrNotScanned) aborts the operation with
// no state mutated. EmptyResult (zero prototypes, zero implementations)
// is NOT an error — operations complete normally with zero-count results;
// the one exception surfaced as a sentinel is the planner's NoOp
// (planner.ErrNothingToReorder), which callers report as informational.
// FileReadError during location is recovered per-file inside the locator
// and never reaches this level. EditApplyFailure (ErrApplyFailed) is
// surfaced to the caller; the apply capability guarantees no partial
// write occurred.
var (
	// ErrNotHeader indicates the given path is not a header file per the
	// configured header extensions.
	ErrNotHeader = errors.New("not a header file")

	// ErrNotScanned indicates no cached scan exists for the header. The
	// caller must run a scan before locating or synchronizing.
	ErrNotScanned = errors.New("header has not been scanned")

	// ErrApplyFailed indicates the replacement could not be committed.
	ErrApplyFailed = errors.New("replacement apply failed")
)
