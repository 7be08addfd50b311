// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicChatWithTools_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q", got)
		}

		var req anthropicToolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens != 4096 {
			t.Errorf("max_tokens = %d, want default 4096", req.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant",
			"content": [{"type": "text", "text": "CHO-K1 grows fastest."}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClientWithConfig("test-key", "claude-sonnet-4-20250514", server.URL)
	result, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "Which cell line grows fastest?"}},
		"You are an analyst.", nil, 0)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if result.Content != "CHO-K1 grows fastest." {
		t.Errorf("content = %q", result.Content)
	}
	if result.StopReason != StopReasonEnd {
		t.Errorf("stop reason = %q", result.StopReason)
	}
	if len(result.ToolCalls) != 0 {
		t.Errorf("tool calls = %d", len(result.ToolCalls))
	}
}

func TestAnthropicChatWithTools_ToolUseResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2", "type": "message", "role": "assistant",
			"content": [
				{"type": "text", "text": "Let me query the graph."},
				{"type": "tool_use", "id": "toolu_01", "name": "execute_sparql",
				 "input": {"template_name": "all_genes"}}
			],
			"stop_reason": "tool_use"
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClientWithConfig("test-key", "claude-sonnet-4-20250514", server.URL)
	result, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "List all genes"}}, "", nil, 0)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if result.StopReason != StopReasonToolUse {
		t.Errorf("stop reason = %q", result.StopReason)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(result.ToolCalls))
	}
	call := result.ToolCalls[0]
	if call.ID != "toolu_01" || call.Name != "execute_sparql" {
		t.Errorf("call = %+v", call)
	}
	args, err := call.ArgumentsMap()
	if err != nil {
		t.Fatal(err)
	}
	if args["template_name"] != "all_genes" {
		t.Errorf("args = %v", args)
	}
	if result.Content != "Let me query the graph." {
		t.Errorf("content = %q", result.Content)
	}
}

func TestAnthropicChatWithTools_ToolHistoryEncoding(t *testing.T) {
	var captured []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "msg_3", "type": "message", "role": "assistant",
			"content": [{"type": "text", "text": "Done."}], "stop_reason": "end_turn"}`))
	}))
	defer server.Close()

	history := []ChatMessage{
		{Role: "user", Content: "List genes"},
		{Role: "assistant", ToolCalls: []ToolCallResponse{
			{ID: "toolu_01", Name: "execute_sparql", Arguments: json.RawMessage(`{"template_name":"all_genes"}`)},
		}},
		{Role: "tool", ToolCallID: "toolu_01", ToolName: "execute_sparql", Content: `{"row_count": 3}`},
	}

	client := NewAnthropicClientWithConfig("test-key", "claude-sonnet-4-20250514", server.URL)
	if _, err := client.ChatWithTools(context.Background(), history, "", nil, 0); err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}

	wire := string(captured)
	if !strings.Contains(wire, `"tool_use"`) {
		t.Error("assistant tool call not encoded as tool_use block")
	}
	if !strings.Contains(wire, `"tool_result"`) {
		t.Error("tool message not encoded as tool_result block")
	}
	if !strings.Contains(wire, `"tool_use_id":"toolu_01"`) {
		t.Error("tool_result missing originating call id")
	}
}

func TestAnthropicChatWithTools_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewAnthropicClientWithConfig("test-key", "claude-sonnet-4-20250514", server.URL)
	_, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hi"}}, "", nil, 0)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("error = %v", err)
	}
}

func TestAnthropicChatWithTools_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type": "error",
			"error": {"type": "invalid_request_error", "message": "model not found"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClientWithConfig("test-key", "bad-model", server.URL)
	_, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hi"}}, "", nil, 0)
	if err == nil {
		t.Fatal("expected error for API error body")
	}
	if !strings.Contains(err.Error(), "invalid_request_error") {
		t.Errorf("error = %v", err)
	}
}

func TestNewAnthropicClient_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicClient(); err == nil {
		t.Error("expected error without ANTHROPIC_API_KEY")
	}
}
