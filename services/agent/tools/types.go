// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the analysis tools exposed to the model: SPARQL
// data fetching, correlation, fold change, differential expression, peak
// condition search, and pathway enrichment.
//
// Tools operate on shared session state (the working table and the last
// differential expression result) owned by the Executor. Results are maps
// serialized verbatim into tool result messages; failures are reported
// in-band under an "error" key so the model can react to them.
package tools

import (
	"context"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
)

// ParamType enumerates the JSON schema types used in tool parameters.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeNumber  ParamType = "number"
	ParamTypeInteger ParamType = "integer"
	ParamTypeBoolean ParamType = "boolean"
	ParamTypeArray   ParamType = "array"
)

// ParamDef describes a single tool parameter.
type ParamDef struct {
	Type        ParamType
	Description string
	Enum        []string
	// Items is set for array parameters.
	Items *ParamDef
}

// ToolDefinition is the schema a tool presents to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Params      map[string]ParamDef
	Required    []string
}

// Tool is an executable analysis capability.
type Tool interface {
	// Definition returns the immutable schema for this tool.
	Definition() ToolDefinition

	// Execute runs the tool against the session state. The returned map
	// is serialized into the tool result message; errors are reported
	// under the "error" key rather than as Go errors so the model can
	// recover from them.
	Execute(ctx context.Context, args map[string]any, state *State) map[string]any
}

// WireFormat converts a definition to the canonical schema sent to
// providers.
func (d ToolDefinition) WireFormat() llm.ToolDef {
	props := make(map[string]llm.ToolParamDef, len(d.Params))
	for name, p := range d.Params {
		props[name] = p.wireFormat()
	}
	return llm.ToolDef{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: llm.ToolSchema{
			Type:       "object",
			Properties: props,
			Required:   d.Required,
		},
	}
}

func (p ParamDef) wireFormat() llm.ToolParamDef {
	out := llm.ToolParamDef{
		Type:        string(p.Type),
		Description: p.Description,
	}
	for _, opt := range p.Enum {
		out.Enum = append(out.Enum, opt)
	}
	if p.Items != nil {
		items := p.Items.wireFormat()
		out.Items = &items
	}
	return out
}
