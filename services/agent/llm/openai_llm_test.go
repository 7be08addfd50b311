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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIChatWithTools_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != "system" {
			t.Errorf("system prompt not sent as leading message: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Two cell lines."}}]
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig("test-key", "gpt-4o-mini", server.URL)
	result, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "How many cell lines?"}},
		"You are an analyst.", nil, 0)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if result.Content != "Two cell lines." || result.StopReason != StopReasonEnd {
		t.Errorf("result = %+v", result)
	}
}

func TestOpenAIChatWithTools_ToolCallResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-2", "object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "tool_calls",
				"message": {"role": "assistant",
					"tool_calls": [{"id": "call_abc", "type": "function",
						"function": {"name": "compute_correlation",
							"arguments": "{\"column1\": \"pH\", \"column2\": \"productivity\"}"}}]}}]
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig("test-key", "gpt-4o-mini", server.URL)
	result, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "Correlate pH with productivity"}}, "", nil, 256)
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
	if call.ID != "call_abc" || call.Name != "compute_correlation" {
		t.Errorf("call = %+v", call)
	}
	args, err := call.ArgumentsMap()
	if err != nil {
		t.Fatal(err)
	}
	if args["column1"] != "pH" || args["column2"] != "productivity" {
		t.Errorf("args = %v", args)
	}
}

func TestOpenAIChatWithTools_ToolResultEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		var toolMsg *openaiMessage
		for i := range req.Messages {
			if req.Messages[i].Role == "tool" {
				toolMsg = &req.Messages[i]
			}
		}
		if toolMsg == nil {
			t.Error("tool result message missing from request")
		} else if toolMsg.ToolCallID != "call_abc" {
			t.Errorf("tool_call_id = %q", toolMsg.ToolCallID)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-3", "object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "r is 0.92."}}]
		}`))
	}))
	defer server.Close()

	history := []ChatMessage{
		{Role: "user", Content: "Correlate pH with productivity"},
		{Role: "assistant", ToolCalls: []ToolCallResponse{
			{ID: "call_abc", Name: "compute_correlation", Arguments: json.RawMessage(`{"column1":"pH"}`)},
		}},
		{Role: "tool", ToolCallID: "call_abc", ToolName: "compute_correlation", Content: `{"correlation": 0.92}`},
	}

	client := NewOpenAIClientWithConfig("test-key", "gpt-4o-mini", server.URL)
	result, err := client.ChatWithTools(context.Background(), history, "", nil, 0)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if result.Content != "r is 0.92." {
		t.Errorf("content = %q", result.Content)
	}
}

func TestOpenAIChatWithTools_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-4", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig("test-key", "gpt-4o-mini", server.URL)
	_, err := client.ChatWithTools(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hi"}}, "", nil, 0)
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %v", err)
	}
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIClient(); err == nil {
		t.Error("expected error without OPENAI_API_KEY")
	}
}
