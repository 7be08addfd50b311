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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// =============================================================================
// Ollama Wire Types
// =============================================================================

const ollamaRequestTimeout = 120 * time.Second

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumCtx int `json:"num_ctx,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// =============================================================================
// Client Implementation
// =============================================================================

// OllamaClient speaks the Ollama /api/chat endpoint using raw net/http.
//
// Description:
//
//	Ollama has no native tool-calling wire format in this integration, so
//	the client only exposes plain chat. Tool-call emulation (catalog in
//	the system prompt, JSON extraction from free text) lives in the
//	provider adapter layer, not here.
//
// Thread Safety: OllamaClient is safe for concurrent use.
type OllamaClient struct {
	httpClient *http.Client
	model      string
	baseURL    string
	numCtx     int
}

// NewOllamaClientWithConfig creates an OllamaClient with explicit
// configuration.
//
// Inputs:
//   - model: The Ollama model name (e.g., "llama3.1:8b").
//   - baseURL: The Ollama server base URL (e.g., "http://localhost:11434").
//   - numCtx: Context window size. Zero means server default.
//
// Outputs:
//   - *OllamaClient: The configured client.
func NewOllamaClientWithConfig(model, baseURL string, numCtx int) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: ollamaRequestTimeout},
		model:      model,
		baseURL:    baseURL,
		numCtx:     numCtx,
	}
}

// Model returns the configured model identifier.
func (o *OllamaClient) Model() string { return o.model }

// Chat sends messages and returns the assistant's response text.
//
// Inputs:
//   - ctx: Context for cancellation and timeout.
//   - messages: Conversation messages (system, user, assistant).
//
// Outputs:
//   - string: The assistant's response text.
//   - error: Non-nil on transport failure, non-2xx status, or malformed body.
//
// Thread Safety: This method is safe for concurrent use.
func (o *OllamaClient) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	apiMessages := make([]ollamaMessage, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, ollamaMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	reqPayload := ollamaChatRequest{
		Model:    o.model,
		Messages: apiMessages,
		Stream:   false,
	}
	if o.numCtx > 0 {
		reqPayload.Options = &ollamaOptions{NumCtx: o.numCtx}
	}

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshaling request: %w", err)
	}

	url := o.baseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("ollama: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("Sending request to Ollama", slog.String("model", o.model), slog.String("url", url))

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, SafeLogString(string(bodyBytes)))
	}

	var apiResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("ollama: parsing response JSON: %w", err)
	}

	if apiResp.Error != "" {
		return "", fmt.Errorf("ollama: API error: %s", SafeLogString(apiResp.Error))
	}

	return apiResp.Message.Content, nil
}
