// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", cfg.Provider)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("max_iterations = %d, want 10", cfg.MaxIterations)
	}
	if cfg.Server.ListenAddr != ":8090" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biotrace.yaml")
	content := `
provider: ollama
model: llama3.1:8b
max_iterations: 5
sparql_endpoint: http://localhost:3030/mcbo/query
log_level: debug
server:
  listen_addr: ":9000"
  write_timeout: 2m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "ollama" || cfg.Model != "llama3.1:8b" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.MaxIterations != 5 {
		t.Errorf("max_iterations = %d", cfg.MaxIterations)
	}
	if cfg.Server.WriteTimeout != 2*time.Minute {
		t.Errorf("write_timeout = %v", cfg.Server.WriteTimeout)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("slog level = %v", cfg.SlogLevel())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biotrace.yaml")
	if err := os.WriteFile(path, []byte("provider: openai\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BIOTRACE_PROVIDER", "mock")
	t.Setenv("BIOTRACE_MAX_ITERATIONS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "mock" {
		t.Errorf("provider = %q, want env override mock", cfg.Provider)
	}
	if cfg.MaxIterations != 3 {
		t.Errorf("max_iterations = %d, want 3", cfg.MaxIterations)
	}
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("BIOTRACE_PROVIDER", "gemini")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for unsupported provider")
	}
}

func TestLoad_InvalidMaxIterations(t *testing.T) {
	t.Setenv("BIOTRACE_MAX_ITERATIONS", "0")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for max_iterations below 1")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_BadSPARQLEndpoint(t *testing.T) {
	t.Setenv("BIOTRACE_SPARQL_ENDPOINT", "not a url")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for malformed endpoint URL")
	}
}

func TestProviderConfig_Ollama(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	cfg := Default()
	cfg.Provider = "ollama"
	pc := cfg.ProviderConfig()
	if pc.BaseURL != "http://gpu-box:11434" {
		t.Errorf("base url = %q", pc.BaseURL)
	}
}
