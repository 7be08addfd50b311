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
	"testing"
)

func TestOllamaChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		if req.Model != "llama3.1:8b" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Options == nil || req.Options.NumCtx != 8192 {
			t.Errorf("options = %+v", req.Options)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "Hello."}, "done": true}`))
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig("llama3.1:8b", server.URL, 8192)
	content, err := client.Chat(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if content != "Hello." {
		t.Errorf("content = %q", content)
	}
}

func TestOllamaChat_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model not loaded"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig("llama3.1:8b", server.URL, 0)
	if _, err := client.Chat(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestOllamaChat_ConnectionRefused(t *testing.T) {
	client := NewOllamaClientWithConfig("llama3.1:8b", "http://127.0.0.1:1", 0)
	if _, err := client.Chat(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error when server is unreachable")
	}
}
