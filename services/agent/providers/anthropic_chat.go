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
	"time"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicChatAdapter wraps AnthropicClient to implement ChatProvider.
//
// Description:
//
//	The canonical conversation shape is modeled after the Anthropic
//	Messages API, so translation here is near-lossless: the wire client
//	already understands tool_use and tool_result blocks.
//
// Thread Safety: AnthropicChatAdapter is safe for concurrent use.
type AnthropicChatAdapter struct {
	client *llm.AnthropicClient
}

// NewAnthropicChatAdapter creates a new AnthropicChatAdapter.
//
// Inputs:
//   - client: The AnthropicClient to wrap. Must not be nil.
//
// Outputs:
//   - *AnthropicChatAdapter: The configured adapter.
func NewAnthropicChatAdapter(client *llm.AnthropicClient) *AnthropicChatAdapter {
	return &AnthropicChatAdapter{client: client}
}

// Name implements ChatProvider.
func (a *AnthropicChatAdapter) Name() string { return ProviderAnthropic }

// CreateMessage implements ChatProvider by delegating to
// AnthropicClient.ChatWithTools.
func (a *AnthropicChatAdapter) CreateMessage(ctx context.Context, history []llm.ChatMessage,
	system string, tools []llm.ToolDef, maxTokens int) *ModelResponse {

	if a.client == nil {
		return errorResponse("Error: Anthropic client is nil")
	}

	ctx, span := otel.Tracer(chatTracerName).Start(ctx, "providers.AnthropicChatAdapter.CreateMessage",
		trace.WithAttributes(
			attribute.String("provider", ProviderAnthropic),
			attribute.Int("message_count", len(history)),
			attribute.Int("tool_count", len(tools)),
		),
	)
	defer span.End()

	startTime := time.Now()
	result, err := a.client.ChatWithTools(ctx, history, system, tools, maxTokens)
	duration := time.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordChatMetrics(ProviderAnthropic, duration, err)
		return errorResponse("Error: Anthropic API call failed: " + err.Error())
	}

	recordChatMetrics(ProviderAnthropic, duration, nil)
	return &ModelResponse{
		Content:    result.Content,
		ToolCalls:  result.ToolCalls,
		StopReason: result.StopReason,
	}
}
