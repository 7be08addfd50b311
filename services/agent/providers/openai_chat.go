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

// OpenAIChatAdapter wraps OpenAIClient to implement ChatProvider.
//
// Description:
//
//	OpenAI's message shape differs structurally from the canonical one
//	(tool role messages, string-encoded call arguments); the wire client
//	re-derives it per turn, so this adapter only handles observability
//	and failure conversion.
//
// Thread Safety: OpenAIChatAdapter is safe for concurrent use.
type OpenAIChatAdapter struct {
	client *llm.OpenAIClient
}

// NewOpenAIChatAdapter creates a new OpenAIChatAdapter.
//
// Inputs:
//   - client: The OpenAIClient to wrap. Must not be nil.
//
// Outputs:
//   - *OpenAIChatAdapter: The configured adapter.
func NewOpenAIChatAdapter(client *llm.OpenAIClient) *OpenAIChatAdapter {
	return &OpenAIChatAdapter{client: client}
}

// Name implements ChatProvider.
func (o *OpenAIChatAdapter) Name() string { return ProviderOpenAI }

// CreateMessage implements ChatProvider by delegating to
// OpenAIClient.ChatWithTools.
func (o *OpenAIChatAdapter) CreateMessage(ctx context.Context, history []llm.ChatMessage,
	system string, tools []llm.ToolDef, maxTokens int) *ModelResponse {

	if o.client == nil {
		return errorResponse("Error: OpenAI client is nil")
	}

	ctx, span := otel.Tracer(chatTracerName).Start(ctx, "providers.OpenAIChatAdapter.CreateMessage",
		trace.WithAttributes(
			attribute.String("provider", ProviderOpenAI),
			attribute.Int("message_count", len(history)),
			attribute.Int("tool_count", len(tools)),
		),
	)
	defer span.End()

	startTime := time.Now()
	result, err := o.client.ChatWithTools(ctx, history, system, tools, maxTokens)
	duration := time.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordChatMetrics(ProviderOpenAI, duration, err)
		return errorResponse("Error: OpenAI API call failed: " + err.Error())
	}

	recordChatMetrics(ProviderOpenAI, duration, nil)
	return &ModelResponse{
		Content:    result.Content,
		ToolCalls:  result.ToolCalls,
		StopReason: result.StopReason,
	}
}
