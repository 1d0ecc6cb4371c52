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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts service operations by name and status.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aleutian",
			Subsystem: "sync",
			Name:      "operations_total",
			Help:      "Service operations by name and status.",
		},
		[]string{"operation", "status"},
	)

	// operationDuration observes operation latency.
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aleutian",
			Subsystem: "sync",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// prototypesExtracted observes per-scan prototype counts.
	prototypesExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aleutian",
			Subsystem: "sync",
			Name:      "prototypes_extracted",
			Help:      "Prototypes extracted per header scan.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)

// recordOperationMetrics records counter and latency for one operation.
func recordOperationMetrics(operation string, start time.Time, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
