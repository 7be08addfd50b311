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
	"fmt"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
)

// Registry is an immutable catalog of tools. Definitions preserve
// registration order so the prompt and wire catalog stay stable.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry builds a registry from the given tools, validating each
// definition once at construction.
func NewRegistry(toolList ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(toolList))}
	for _, t := range toolList {
		def := t.Definition()
		if def.Name == "" {
			return nil, fmt.Errorf("tools: tool with empty name")
		}
		if _, exists := r.byName[def.Name]; exists {
			return nil, fmt.Errorf("tools: duplicate tool name %q", def.Name)
		}
		for _, req := range def.Required {
			if _, ok := def.Params[req]; !ok {
				return nil, fmt.Errorf("tools: tool %q requires undeclared parameter %q", def.Name, req)
			}
		}
		r.byName[def.Name] = t
		r.order = append(r.order, def.Name)
	}
	return r, nil
}

// DefaultRegistry builds the standard tool set in its canonical order.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		&ExecuteSPARQLTool{},
		&CorrelationTool{},
		&FoldChangeTool{},
		&PeakConditionsTool{},
		&FilterTool{},
		&DifferentialExpressionTool{},
		&PathwayEnrichmentTool{},
		&SummarizeByGroupTool{},
		&SignificantGenesTool{},
	)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Definitions returns all tool definitions in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// WireCatalog returns the definitions in the canonical wire shape sent
// to providers.
func (r *Registry) WireCatalog() []llm.ToolDef {
	defs := r.Definitions()
	wire := make([]llm.ToolDef, 0, len(defs))
	for _, def := range defs {
		wire = append(wire, def.WireFormat())
	}
	return wire
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
