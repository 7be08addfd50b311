// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// toolTracerName is the shared OTel tracer name for tool execution.
const toolTracerName = "biotrace.tools"

// Package-level Prometheus metrics for tool execution.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// toolExecDuration measures tool execution time.
	//
	// Labels:
	//   - tool: tool name, or "unknown" for unregistered names
	//   - status: "success" or "error"
	toolExecDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "biotrace",
			Subsystem: "tools",
			Name:      "exec_duration_seconds",
			Help:      "Duration of analysis tool executions in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"tool", "status"},
	)

	// toolExecTotal counts tool executions.
	toolExecTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biotrace",
			Subsystem: "tools",
			Name:      "exec_total",
			Help:      "Total number of analysis tool executions.",
		},
		[]string{"tool", "status"},
	)
)

// recordToolMetrics records Prometheus metrics for one tool execution.
// An in-band "error" key in the result counts as an error.
//
// Thread Safety: Safe for concurrent use.
func recordToolMetrics(tool string, duration time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	toolExecDuration.WithLabelValues(tool, status).Observe(duration.Seconds())
	toolExecTotal.WithLabelValues(tool, status).Inc()
}
