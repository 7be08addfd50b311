// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// toolCallPattern matches an embedded JSON tool-call object in free text.
// Only flat argument objects are matched; nested braces inside arguments are
// outside the emulation contract.
var toolCallPattern = regexp.MustCompile(`\{[^{}]*"tool"\s*:\s*"[^"]+"\s*,\s*"arguments"\s*:\s*\{[^{}]*\}[^{}]*\}`)

// ollamaToolInstructions is appended to the system prompt so models without
// native tool calling still emit parseable tool requests.
const ollamaToolInstructions = `

YOU ARE A TOOL-USING AGENT. You MUST respond with JSON tool calls, not explanations.

FORMAT - Respond with ONLY this JSON, no other text:
{"tool": "tool_name", "arguments": {...}}

RULES:
- If you see "No data loaded" error, call execute_sparql first
- After tool results, either call another tool OR give final answer
- Do NOT explain what you will do - just DO it with a tool call
- In your final answer, summarize the key findings in plain English with
  specific evidence (run IDs, cell line names, sample IDs) and do NOT
  output JSON or tool calls

AVAILABLE TOOLS:
`

// embeddedToolCall is the JSON shape models are instructed to emit.
type embeddedToolCall struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// OllamaChatAdapter implements ChatProvider for backends without native
// tool calling.
//
// Description:
//
//	The tool catalog and a strict "emit only JSON" instruction are
//	serialized into the system prompt. Responses are free text that may
//	contain embedded JSON tool-call objects; the adapter pattern-extracts
//	them, strips them from the visible content, and synthesizes locally
//	unique call ids ("ollama_0", "ollama_1", ...) since the backend
//	supplies none. If extraction finds nothing, the full text is treated
//	as a final answer.
//
// Thread Safety: OllamaChatAdapter is safe for concurrent use.
type OllamaChatAdapter struct {
	client *llm.OllamaClient
}

// NewOllamaChatAdapter creates a new OllamaChatAdapter.
//
// Inputs:
//   - client: The OllamaClient to wrap. Must not be nil.
//
// Outputs:
//   - *OllamaChatAdapter: The configured adapter.
func NewOllamaChatAdapter(client *llm.OllamaClient) *OllamaChatAdapter {
	return &OllamaChatAdapter{client: client}
}

// Name implements ChatProvider.
func (o *OllamaChatAdapter) Name() string { return ProviderOllama }

// CreateMessage implements ChatProvider with prompt-serialized tool calling.
func (o *OllamaChatAdapter) CreateMessage(ctx context.Context, history []llm.ChatMessage,
	system string, tools []llm.ToolDef, maxTokens int) *ModelResponse {

	if o.client == nil {
		return errorResponse("Error: Ollama client is nil")
	}

	ctx, span := otel.Tracer(chatTracerName).Start(ctx, "providers.OllamaChatAdapter.CreateMessage",
		trace.WithAttributes(
			attribute.String("provider", ProviderOllama),
			attribute.Int("message_count", len(history)),
			attribute.Int("tool_count", len(tools)),
		),
	)
	defer span.End()

	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, llm.ChatMessage{
		Role:    "system",
		Content: buildOllamaSystemPrompt(system, tools),
	})

	// Flatten structured turns to plain text: Ollama sees only role+content.
	for _, msg := range history {
		flat := flattenMessage(msg)
		if flat.Content == "" {
			continue
		}
		messages = append(messages, flat)
	}

	startTime := time.Now()
	content, err := o.client.Chat(ctx, messages)
	duration := time.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordChatMetrics(ProviderOllama, duration, err)
		return errorResponse(fmt.Sprintf(
			"Error: Cannot reach Ollama (model %q): %v. Make sure Ollama is running: ollama serve",
			o.client.Model(), err))
	}
	recordChatMetrics(ProviderOllama, duration, nil)

	content, toolCalls := ExtractToolCalls(content)
	span.SetAttributes(attribute.Int("extracted_tool_calls", len(toolCalls)))

	stopReason := llm.StopReasonEnd
	if len(toolCalls) > 0 {
		stopReason = llm.StopReasonToolUse
	}

	return &ModelResponse{
		Content:    content,
		ToolCalls:  toolCalls,
		StopReason: stopReason,
	}
}

// buildOllamaSystemPrompt appends the tool-calling emulation contract and
// the tool catalog to the base system prompt.
func buildOllamaSystemPrompt(system string, tools []llm.ToolDef) string {
	if len(tools) == 0 {
		return system
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString(ollamaToolInstructions)
	for _, td := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", td.Name, td.Description)
	}
	return b.String()
}

// flattenMessage reduces a canonical turn to plain role+content text.
func flattenMessage(msg llm.ChatMessage) llm.ChatMessage {
	switch {
	case msg.Role == "tool" && msg.ToolCallID != "":
		return llm.ChatMessage{Role: "user", Content: "Tool result: " + msg.Content}
	case msg.Role == "assistant" && len(msg.ToolCalls) > 0:
		parts := []string{}
		if msg.Content != "" {
			parts = append(parts, msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			parts = append(parts, fmt.Sprintf("[Called tool: %s]", tc.Name))
		}
		return llm.ChatMessage{Role: "assistant", Content: strings.Join(parts, "\n")}
	default:
		return llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}
}

// ExtractToolCalls finds embedded JSON tool-call objects in model output.
//
// Description:
//
//	Each match that decodes to {"tool": ..., "arguments": {...}} becomes a
//	ToolCallResponse with a synthesized id and is stripped from the
//	visible content. Non-decoding matches are left in place.
//
// Inputs:
//   - content: Raw model output text.
//
// Outputs:
//   - string: Content with extracted tool-call JSON removed.
//   - []llm.ToolCallResponse: Extracted calls in order of appearance.
//
// Thread Safety: Safe for concurrent use.
func ExtractToolCalls(content string) (string, []llm.ToolCallResponse) {
	matches := toolCallPattern.FindAllString(content, -1)
	var calls []llm.ToolCallResponse

	for _, match := range matches {
		var parsed embeddedToolCall
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			continue
		}
		if parsed.Tool == "" {
			continue
		}
		args := parsed.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		calls = append(calls, llm.ToolCallResponse{
			ID:        fmt.Sprintf("ollama_%d", len(calls)),
			Name:      parsed.Tool,
			Arguments: args,
		})
		content = strings.TrimSpace(strings.Replace(content, match, "", 1))
	}

	return content, calls
}
