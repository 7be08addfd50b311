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
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Executor dispatches tool calls against per-session state.
//
// Description:
//
//	The executor never returns a Go error to the caller: unknown tools,
//	bad arguments, and tool panics all surface as in-band error results
//	so the orchestration loop can hand them back to the model.
//
// Thread Safety: Safe for concurrent use; state accessors synchronize
// internally. Tool calls within one model turn are executed sequentially
// by the loop, preserving write/read coupling between tools.
type Executor struct {
	registry *Registry
	state    *State
}

// NewExecutor creates an executor over a registry and fresh-or-shared
// session state.
func NewExecutor(registry *Registry, state *State) *Executor {
	return &Executor{registry: registry, state: state}
}

// State exposes the session state, mainly for tests and the HTTP surface.
func (e *Executor) State() *State { return e.state }

// Registry returns the tool catalog backing this executor.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs one tool call and returns its result map.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (result map[string]any) {
	tracer := otel.Tracer(toolTracerName)
	ctx, span := tracer.Start(ctx, "tools.Executor.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", name),
		attribute.Int("tool.arg_count", len(args)),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool execution panicked", "tool", name, "panic", r)
			result = errorResultf("tool %s panicked: %v", name, r)
		}
		_, failed := result["error"]
		recordToolMetrics(name, time.Since(start), failed)
		span.SetAttributes(attribute.Bool("tool.failed", failed))
	}()

	tool, ok := e.registry.Get(name)
	if !ok {
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}
	if args == nil {
		args = map[string]any{}
	}

	slog.Debug("executing tool", "tool", name)
	return tool.Execute(ctx, args, e.state)
}
