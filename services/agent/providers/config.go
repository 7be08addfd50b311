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
	"log/slog"
	"os"
)

// Provider constants for supported LLM backends.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// ValidProviders contains the set of valid provider names.
var ValidProviders = []string{ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderMock}

// ProviderConfig holds the configuration for a single provider instance.
//
// Description:
//
//	Specifies which backend to use, which model, and any provider-specific
//	settings. Used by NewProvider to create the right adapter.
type ProviderConfig struct {
	// Provider is the backend to use: "anthropic", "openai", "ollama", "mock".
	Provider string

	// Model is the provider-specific model identifier.
	// Examples: "claude-sonnet-4-20250514" (Anthropic), "llama3.1:8b" (Ollama).
	Model string

	// BaseURL is an optional endpoint override.
	// For Ollama: defaults to OLLAMA_BASE_URL or http://localhost:11434.
	// For cloud providers: uses the provider's default API URL.
	BaseURL string

	// APIKey is the authentication key for cloud providers.
	// Loaded from environment: ANTHROPIC_API_KEY, OPENAI_API_KEY.
	APIKey string

	// NumCtx sets the context window size (Ollama-specific).
	NumCtx int
}

// ConfigError is a configuration-time failure: an unknown provider name or
// a missing required setting. It is raised immediately at construction and
// indicates a caller/integration bug, never a retryable condition.
type ConfigError struct {
	Field string
	Msg   string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("provider config: %s: %s", e.Field, e.Msg)
	}
	return "provider config: " + e.Msg
}

// isValidProvider checks if a provider name is valid.
func isValidProvider(provider string) bool {
	for _, p := range ValidProviders {
		if provider == p {
			return true
		}
	}
	return false
}

// ResolveOllamaURL resolves the Ollama server URL from environment variables.
//
// Description:
//
//	Resolution order:
//	  1. OLLAMA_BASE_URL (preferred)
//	  2. http://localhost:11434 (default)
//
// Outputs:
//   - string: The resolved Ollama URL.
func ResolveOllamaURL() string {
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:11434"
}

// LoadProviderConfig reads provider configuration from environment variables.
//
// Description:
//
//	Reads BIOTRACE_PROVIDER and BIOTRACE_MODEL, falling back to
//	"anthropic" and the provider's default model when unset. Provider
//	credentials are read from the standard per-backend variables.
//
// Inputs:
//   - providerFallback: Provider to use when BIOTRACE_PROVIDER is unset.
//     Empty means "anthropic".
//
// Outputs:
//   - ProviderConfig: The resolved configuration.
//   - error: *ConfigError if an invalid provider name is specified.
func LoadProviderConfig(providerFallback string) (ProviderConfig, error) {
	provider := os.Getenv("BIOTRACE_PROVIDER")
	if provider == "" {
		provider = providerFallback
	}
	if provider == "" {
		provider = ProviderAnthropic
	}

	if !isValidProvider(provider) {
		return ProviderConfig{}, &ConfigError{
			Field: "BIOTRACE_PROVIDER",
			Msg:   fmt.Sprintf("invalid provider %q (valid: %v)", provider, ValidProviders),
		}
	}

	cfg := ProviderConfig{
		Provider: provider,
		Model:    os.Getenv("BIOTRACE_MODEL"),
	}

	switch provider {
	case ProviderAnthropic:
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	case ProviderOllama:
		cfg.BaseURL = ResolveOllamaURL()
	}

	slog.Debug("Resolved provider config",
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model),
	)

	return cfg, nil
}
