// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command biotrace answers analytical questions over a bioprocess
// knowledge graph.
//
// The agent plans SPARQL queries and statistical analyses with an LLM
// backend, executes them through a fixed tool catalog, and synthesizes
// a final answer.
//
// Usage:
//
//	biotrace ask "Which genes correlate with productivity?"
//	biotrace cq CQ4 --param x=GFP
//	biotrace cqs
//	biotrace eval --all --out results/
//	biotrace serve
//
// With a local model:
//
//	BIOTRACE_PROVIDER=ollama BIOTRACE_MODEL=llama3.1:8b biotrace ask "..."
//
// Against a live graph:
//
//	BIOTRACE_SPARQL_ENDPOINT=http://localhost:3030/mcbo/query biotrace serve
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/BioTrace/services/agent/config"
	"github.com/AleutianAI/BioTrace/services/agent/kg"
	"github.com/AleutianAI/BioTrace/services/agent/orchestrator"
	"github.com/AleutianAI/BioTrace/services/agent/pathways"
	"github.com/AleutianAI/BioTrace/services/agent/providers"
	"github.com/AleutianAI/BioTrace/services/agent/tools"
)

// cfg is the resolved application configuration, loaded by the root
// command before any subcommand runs.
var cfg config.Config

// Root flag values. Flags override both the config file and environment.
var (
	cfgFile           string
	flagProvider      string
	flagModel         string
	flagEndpoint      string
	flagMaxIterations int
	flagVerbose       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "biotrace",
		Short: "BioTrace - knowledge graph question answering agent",
		Long: `BioTrace answers natural language questions about bioprocess
experiments by planning SPARQL queries and statistical analyses over a
knowledge graph.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd)

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			})))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM backend: anthropic, openai, ollama, mock")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model identifier for the backend")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "SPARQL endpoint URL")
	rootCmd.PersistentFlags().IntVar(&flagMaxIterations, "max-iterations", 0, "reasoning loop budget per question")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log each reasoning iteration")

	rootCmd.AddCommand(
		askCmd(),
		cqCmd(),
		cqsCmd(),
		evalCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyFlagOverrides overlays explicitly-set root flags onto the
// resolved configuration.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("provider") {
		cfg.Provider = flagProvider
	}
	if flags.Changed("model") {
		cfg.Model = flagModel
	}
	if flags.Changed("endpoint") {
		cfg.SPARQLEndpoint = flagEndpoint
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = flagMaxIterations
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
}

// buildSessionFactory assembles the provider, tool registry, and state
// constructor from the resolved configuration.
func buildSessionFactory() (orchestrator.SessionFactory, error) {
	provider, err := providers.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}

	registry, err := tools.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	pathwaySvc, err := buildPathwayService()
	if err != nil {
		return nil, err
	}

	newState := func() *tools.State {
		var querier kg.Querier
		if cfg.SPARQLEndpoint != "" {
			querier = kg.NewEndpointClient(cfg.SPARQLEndpoint)
		}
		return tools.NewState(querier, pathwaySvc)
	}

	return orchestrator.NewSessionFactory(provider, registry, newState,
		orchestrator.WithMaxIterations(cfg.MaxIterations),
		orchestrator.WithVerbose(cfg.Verbose),
	), nil
}

// buildPathwayService wires the enrichment backends from configuration.
func buildPathwayService() (*pathways.Service, error) {
	kegg := pathways.NewKEGGClient()
	if cfg.Pathways.KEGGBaseURL != "" {
		kegg = pathways.NewKEGGClientWithConfig(cfg.Pathways.KEGGBaseURL)
	}

	reactome := pathways.NewReactomeClient()
	if cfg.Pathways.ReactomeBaseURL != "" {
		reactome = pathways.NewReactomeClientWithConfig(cfg.Pathways.ReactomeBaseURL)
	}

	var local *pathways.LocalDB
	if cfg.Pathways.LocalDBPath != "" {
		db, err := pathways.LoadLocalDB(cfg.Pathways.LocalDBPath)
		if err != nil {
			return nil, fmt.Errorf("loading pathway database: %w", err)
		}
		local = db
	}

	return pathways.NewServiceWithBackends(kegg, reactome, local), nil
}
