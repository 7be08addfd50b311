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
	"sync"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
)

// mockExhaustedAnswer is returned once the pre-programmed queue runs out.
const mockExhaustedAnswer = "I don't have a response configured for this message."

// MockChatAdapter is a deterministic ChatProvider for testing.
//
// Description:
//
//	Ignores all inputs and returns the next item from a pre-programmed
//	queue of responses; once exhausted, returns a fixed "no response
//	configured" answer. Makes the orchestration loop's state machine
//	independently testable without any live backend.
//
// Thread Safety: MockChatAdapter is safe for concurrent use.
type MockChatAdapter struct {
	mu        sync.Mutex
	responses []*ModelResponse
	callCount int
}

// NewMockChatAdapter creates a MockChatAdapter with a response queue.
//
// Inputs:
//   - responses: Responses returned in order. May be nil or empty.
//
// Outputs:
//   - *MockChatAdapter: The configured adapter.
func NewMockChatAdapter(responses []*ModelResponse) *MockChatAdapter {
	return &MockChatAdapter{responses: responses}
}

// Name implements ChatProvider.
func (m *MockChatAdapter) Name() string { return ProviderMock }

// CallCount returns how many times CreateMessage has been invoked.
func (m *MockChatAdapter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Enqueue appends a response to the queue.
func (m *MockChatAdapter) Enqueue(resp *ModelResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CreateMessage implements ChatProvider by replaying the queue.
func (m *MockChatAdapter) CreateMessage(_ context.Context, _ []llm.ChatMessage,
	_ string, _ []llm.ToolDef, _ int) *ModelResponse {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.callCount < len(m.responses) {
		resp := m.responses[m.callCount]
		m.callCount++
		return resp
	}
	m.callCount++

	return &ModelResponse{
		Content:    mockExhaustedAnswer,
		ToolCalls:  nil,
		StopReason: llm.StopReasonEnd,
	}
}
