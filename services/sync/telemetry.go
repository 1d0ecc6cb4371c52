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
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// tracerName identifies this service's tracer.
const tracerName = "aleutian.sync"

// startOperationSpan starts a span for a service operation.
func startOperationSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "sync."+operation,
		oteltrace.WithAttributes(attrs...),
	)
}

// setOperationSpanResult records the outcome of a service operation on
// its span.
func setOperationSpanResult(span oteltrace.Span, resultCount int, ok bool) {
	span.SetAttributes(
		attribute.Int("result_count", resultCount),
		attribute.Bool("ok", ok),
	)
}
