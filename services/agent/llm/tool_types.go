// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm contains the canonical conversation types and the raw wire
// clients for each supported LLM backend. The canonical shape is modeled
// after the Anthropic Messages API: every backend client translates to and
// from these types so the rest of the agent never sees a wire format.
package llm

import "encoding/json"

// ToolDef is the backend-agnostic tool definition advertised to the model.
//
// Description:
//
//	Each backend client converts ToolDef into its wire format
//	(Anthropic input_schema, OpenAI function). For backends without
//	native tool calling the catalog is serialized into the system prompt.
//
// Thread Safety: ToolDef is immutable and safe for concurrent read access.
type ToolDef struct {
	// Name is the tool name the model will call.
	Name string `json:"name"`

	// Description explains what the tool does.
	Description string `json:"description"`

	// InputSchema defines the JSON Schema for the tool's parameters.
	InputSchema ToolSchema `json:"input_schema"`
}

// ToolSchema is the JSON Schema object for a tool's parameters.
type ToolSchema struct {
	// Type is always "object" for tool parameters.
	Type string `json:"type"`

	// Properties maps parameter names to their definitions.
	Properties map[string]ToolParamDef `json:"properties,omitempty"`

	// Required lists parameter names that must be provided.
	Required []string `json:"required,omitempty"`
}

// ToolParamDef defines a single parameter in JSON Schema format.
type ToolParamDef struct {
	// Type is the JSON Schema type (string, integer, number, boolean, array).
	Type string `json:"type"`

	// Description explains what the parameter is for.
	Description string `json:"description,omitempty"`

	// Enum restricts values to a set of options.
	Enum []any `json:"enum,omitempty"`

	// Default is the default value if not provided.
	Default any `json:"default,omitempty"`

	// Items defines the element type for array parameters.
	Items *ToolParamDef `json:"items,omitempty"`
}

// ChatMessage is one turn of the canonical conversation.
//
// Description:
//
//	Regular turns use Role + Content. Assistant turns that requested tools
//	carry ToolCalls. Tool-result turns use Role "tool" with ToolCallID set
//	to the id of the originating call. Backend clients re-derive their own
//	message shape from these fields on every request.
//
// Thread Safety: ChatMessage is safe for concurrent read access.
type ChatMessage struct {
	// Role is "user", "assistant", or "tool".
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content,omitempty"`

	// ToolCalls contains tool invocations (assistant messages only).
	ToolCalls []ToolCallResponse `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-result message back to a specific tool call.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName is the tool name for tool-result messages.
	ToolName string `json:"tool_name,omitempty"`
}

// ToolCallResponse is a backend-agnostic tool call extracted from a model
// response.
//
// Description:
//
//	Anthropic supplies the ID in tool_use blocks and OpenAI in the
//	tool_calls array. Ollama supplies none; the adapter synthesizes
//	locally unique ids.
//
// Thread Safety: ToolCallResponse is safe for concurrent read access.
type ToolCallResponse struct {
	// ID is the unique identifier for this tool call.
	ID string `json:"id"`

	// Name is the tool name to call.
	Name string `json:"name"`

	// Arguments is the raw JSON arguments object.
	Arguments json.RawMessage `json:"arguments"`
}

// ArgumentsMap decodes the call arguments into a map.
//
// Outputs:
//   - map[string]any: The decoded arguments. Empty map for nil/empty input.
//   - error: Non-nil if the arguments are not a JSON object.
func (t *ToolCallResponse) ArgumentsMap() (map[string]any, error) {
	if len(t.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(t.Arguments, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// ArgumentsString returns the arguments as a JSON string.
//
// Description:
//
//	If arguments is a JSON string value (starts with a quote), the
//	unquoted string is returned. Otherwise the raw JSON is returned
//	as-is. Returns "{}" for nil/empty.
func (t *ToolCallResponse) ArgumentsString() string {
	if len(t.Arguments) == 0 {
		return "{}"
	}
	if t.Arguments[0] == '"' {
		var s string
		if err := json.Unmarshal(t.Arguments, &s); err == nil {
			return s
		}
	}
	return string(t.Arguments)
}

// Stop reasons reported by ChatWithToolsResult and ModelResponse.
const (
	// StopReasonEnd means the model produced a final text answer.
	StopReasonEnd = "end"

	// StopReasonToolUse means the model requested one or more tool calls.
	StopReasonToolUse = "tool_use"

	// StopReasonError means the backend call failed and Content carries an
	// explanatory message instead of a model answer.
	StopReasonError = "error"
)

// ChatWithToolsResult is the backend-agnostic result of one model call.
//
// Thread Safety: ChatWithToolsResult is safe for concurrent read access.
type ChatWithToolsResult struct {
	// Content is the text response (may be empty if only tool calls).
	Content string

	// ToolCalls contains tool calls requested by the model, in the order
	// the backend returned them.
	ToolCalls []ToolCallResponse

	// StopReason is one of StopReasonEnd or StopReasonToolUse.
	StopReason string
}
