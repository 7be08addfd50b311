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
	"fmt"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
)

// NewProvider creates the ChatProvider for the given configuration.
//
// Description:
//
//	The single creation point for all backend adapters. An unrecognized
//	provider name is a configuration error raised immediately — never
//	retried or defaulted silently.
//
// Inputs:
//   - cfg: Provider configuration specifying backend and model.
//
// Outputs:
//   - ChatProvider: The adapter for the specified backend.
//   - error: *ConfigError if the provider is unsupported or a required
//     setting is missing.
//
// Example:
//
//	provider, err := providers.NewProvider(providers.ProviderConfig{
//	    Provider: "anthropic",
//	    Model:    "claude-sonnet-4-20250514",
//	    APIKey:   "sk-ant-...",
//	})
func NewProvider(cfg ProviderConfig) (ChatProvider, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			client, err := llm.NewAnthropicClient()
			if err != nil {
				return nil, &ConfigError{Field: "APIKey", Msg: "ANTHROPIC_API_KEY required for Anthropic provider"}
			}
			return NewAnthropicChatAdapter(client), nil
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com/v1/messages"
		}
		return NewAnthropicChatAdapter(llm.NewAnthropicClientWithConfig(cfg.APIKey, cfg.Model, baseURL)), nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			client, err := llm.NewOpenAIClient()
			if err != nil {
				return nil, &ConfigError{Field: "APIKey", Msg: "OPENAI_API_KEY required for OpenAI provider"}
			}
			return NewOpenAIChatAdapter(client), nil
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1/chat/completions"
		}
		return NewOpenAIChatAdapter(llm.NewOpenAIClientWithConfig(cfg.APIKey, cfg.Model, baseURL)), nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = ResolveOllamaURL()
		}
		return NewOllamaChatAdapter(llm.NewOllamaClientWithConfig(cfg.Model, baseURL, cfg.NumCtx)), nil

	case ProviderMock:
		return NewMockChatAdapter(nil), nil

	default:
		return nil, &ConfigError{
			Field: "Provider",
			Msg:   fmt.Sprintf("unsupported provider: %q (valid: %v)", cfg.Provider, ValidProviders),
		}
	}
}
