// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the application configuration.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file (Load with a non-empty path)
//  3. BIOTRACE_* environment variables
//
// The resolved configuration is validated once with struct tags; an
// invalid configuration is a startup error, never a silent fallback.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/BioTrace/services/agent/providers"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP server binds to.
	// Env: BIOTRACE_LISTEN_ADDR (default: ":8090")
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// ReadTimeout bounds how long reading a request may take.
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds how long writing a response may take. Answering
	// a question can involve several model round trips, so this defaults
	// to a generous five minutes.
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"min=0"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
}

// PathwaysConfig holds the enrichment backend settings.
type PathwaysConfig struct {
	// KEGGBaseURL overrides the KEGG REST endpoint. Empty uses the
	// public https://rest.kegg.jp.
	// Env: BIOTRACE_KEGG_BASE_URL
	KEGGBaseURL string `yaml:"kegg_base_url" validate:"omitempty,url"`

	// ReactomeBaseURL overrides the Reactome Analysis Service endpoint.
	// Env: BIOTRACE_REACTOME_BASE_URL
	ReactomeBaseURL string `yaml:"reactome_base_url" validate:"omitempty,url"`

	// LocalDBPath points at a JSON pathway database for offline
	// enrichment. Empty disables the local backend.
	// Env: BIOTRACE_PATHWAY_DB
	LocalDBPath string `yaml:"local_db_path"`
}

// Config is the root application configuration.
//
// Thread Safety: Config is a value type. Safe to copy and share after
// loading.
type Config struct {
	// Provider selects the LLM backend: anthropic, openai, ollama, mock.
	// Env: BIOTRACE_PROVIDER (default: "anthropic")
	Provider string `yaml:"provider" validate:"required,oneof=anthropic openai ollama mock"`

	// Model is the provider-specific model identifier. Empty uses the
	// backend's default.
	// Env: BIOTRACE_MODEL
	Model string `yaml:"model"`

	// MaxIterations bounds the reasoning loop per question.
	// Env: BIOTRACE_MAX_ITERATIONS (default: 10)
	MaxIterations int `yaml:"max_iterations" validate:"min=1,max=100"`

	// SPARQLEndpoint is the knowledge graph query endpoint. Empty means
	// the agent runs without a live graph (tools report no data).
	// Env: BIOTRACE_SPARQL_ENDPOINT
	SPARQLEndpoint string `yaml:"sparql_endpoint" validate:"omitempty,url"`

	// LogLevel sets the slog level: debug, info, warn, error.
	// Env: BIOTRACE_LOG_LEVEL (default: "info")
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Verbose enables per-iteration progress logging in the loop.
	// Env: BIOTRACE_VERBOSE (default: false)
	Verbose bool `yaml:"verbose"`

	Server   ServerConfig   `yaml:"server"`
	Pathways PathwaysConfig `yaml:"pathways"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Provider:      providers.ProviderAnthropic,
		MaxIterations: 10,
		LogLevel:      "info",
		Server: ServerConfig{
			ListenAddr:      ":8090",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load resolves the full configuration.
//
// Description:
//
//	Starts from Default, merges the YAML file at path when path is
//	non-empty, then applies BIOTRACE_* environment overrides, and
//	finally validates the result.
//
// Inputs:
//   - path: YAML file path, or "" to skip the file layer.
//
// Outputs:
//   - Config: The resolved configuration.
//   - error: Non-nil on a missing/unparseable file or failed validation.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Debug("Configuration resolved",
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model),
		slog.Int("max_iterations", cfg.MaxIterations),
		slog.Bool("sparql_configured", cfg.SPARQLEndpoint != ""),
	)

	return cfg, nil
}

// applyEnv overlays BIOTRACE_* environment variables onto the config.
func (c *Config) applyEnv() {
	c.Provider = envStr("BIOTRACE_PROVIDER", c.Provider)
	c.Model = envStr("BIOTRACE_MODEL", c.Model)
	c.MaxIterations = envInt("BIOTRACE_MAX_ITERATIONS", c.MaxIterations)
	c.SPARQLEndpoint = envStr("BIOTRACE_SPARQL_ENDPOINT", c.SPARQLEndpoint)
	c.LogLevel = envStr("BIOTRACE_LOG_LEVEL", c.LogLevel)
	c.Verbose = envBool("BIOTRACE_VERBOSE", c.Verbose)
	c.Server.ListenAddr = envStr("BIOTRACE_LISTEN_ADDR", c.Server.ListenAddr)
	c.Pathways.KEGGBaseURL = envStr("BIOTRACE_KEGG_BASE_URL", c.Pathways.KEGGBaseURL)
	c.Pathways.ReactomeBaseURL = envStr("BIOTRACE_REACTOME_BASE_URL", c.Pathways.ReactomeBaseURL)
	c.Pathways.LocalDBPath = envStr("BIOTRACE_PATHWAY_DB", c.Pathways.LocalDBPath)
}

// ProviderConfig bridges the application config to the provider factory,
// attaching credentials from the standard per-backend variables.
func (c Config) ProviderConfig() providers.ProviderConfig {
	pc := providers.ProviderConfig{
		Provider: c.Provider,
		Model:    c.Model,
	}
	switch c.Provider {
	case providers.ProviderAnthropic:
		pc.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case providers.ProviderOpenAI:
		pc.APIKey = os.Getenv("OPENAI_API_KEY")
	case providers.ProviderOllama:
		pc.BaseURL = providers.ResolveOllamaURL()
	}
	return pc
}

// SlogLevel converts the configured LogLevel string to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envStr reads a string environment variable with a default value.
func envStr(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envInt reads an integer environment variable with a default value.
func envInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// envBool reads a boolean environment variable with a default value.
func envBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
