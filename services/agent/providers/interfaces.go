// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package providers normalizes heterogeneous LLM backend protocols to the
// canonical conversation shape consumed by the orchestrator. Each adapter
// owns the full translation for one backend: structured tool calling
// (Anthropic), an alternate structured shape (OpenAI), prompt-serialized
// tool calling with JSON extraction (Ollama), and a deterministic queue
// (mock) for testing the orchestration loop without a live backend.
//
// Thread Safety:
//
//	All adapters in this package are safe for concurrent use.
package providers

import (
	"context"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
)

// ModelResponse is the normalized outcome of one model call.
//
// Description:
//
//	StopReason is llm.StopReasonEnd for a final answer,
//	llm.StopReasonToolUse when ToolCalls is non-empty, and
//	llm.StopReasonError when the backend call failed — in that case
//	Content carries an explanatory message and ToolCalls is empty.
type ModelResponse struct {
	// Content is the visible text portion of the response.
	Content string

	// ToolCalls lists requested tool invocations in backend order.
	ToolCalls []llm.ToolCallResponse

	// StopReason is one of the llm.StopReason* constants.
	StopReason string
}

// ChatProvider is the capability interface every backend adapter satisfies.
//
// Description:
//
//	CreateMessage never surfaces an adapter-level fault: connection
//	failures, non-2xx responses, and malformed bodies are converted into
//	a terminal-looking ModelResponse with StopReason "error" so the
//	orchestration loop always receives a well-formed response object.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ChatProvider interface {
	// CreateMessage sends the full history, system prompt, and tool
	// catalog to the backend and returns the normalized response.
	//
	// Inputs:
	//   - ctx: Context for cancellation and timeout.
	//   - history: Canonical conversation history.
	//   - system: System prompt text.
	//   - tools: Tool catalog advertised to the model.
	//   - maxTokens: Response token budget. Zero means adapter default.
	//
	// Outputs:
	//   - *ModelResponse: Always non-nil and well-formed.
	CreateMessage(ctx context.Context, history []llm.ChatMessage, system string,
		tools []llm.ToolDef, maxTokens int) *ModelResponse

	// Name returns the provider name ("anthropic", "openai", "ollama", "mock").
	Name() string
}

// errorResponse builds the terminal-looking response adapters return when a
// backend call fails.
func errorResponse(msg string) *ModelResponse {
	return &ModelResponse{
		Content:    msg,
		ToolCalls:  nil,
		StopReason: llm.StopReasonError,
	}
}
