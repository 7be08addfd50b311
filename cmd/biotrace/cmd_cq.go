// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/BioTrace/services/agent/orchestrator"
)

// cqCmd answers one competency question by id.
func cqCmd() *cobra.Command {
	var (
		jsonOut bool
		params  []string
	)

	cmd := &cobra.Command{
		Use:   "cq <id>",
		Short: "Answer a competency question (CQ1..CQ8)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			shutdown, err := initTelemetry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			parameters, err := parseParams(params)
			if err != nil {
				return err
			}

			factory, err := buildSessionFactory()
			if err != nil {
				return err
			}
			session, err := factory()
			if err != nil {
				return err
			}

			result := session.AnswerCQ(ctx, args[0], parameters)
			return printResult(result, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	cmd.Flags().StringArrayVar(&params, "param", nil, "question parameter as key=value (repeatable)")
	return cmd
}

// cqsCmd lists the competency questions.
func cqsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cqs",
		Short: "List the competency questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range orchestrator.CQOrder {
				fmt.Printf("%s: %s\n", id, orchestrator.CQDescriptions[id])
			}
			return nil
		},
	}
}

// evalCmd runs the full competency question evaluation.
func evalCmd() *cobra.Command {
	var (
		all         bool
		outDir      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate all competency questions and write JSON results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				return fmt.Errorf("eval currently requires --all")
			}

			ctx := cmd.Context()
			shutdown, err := initTelemetry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			factory, err := buildSessionFactory()
			if err != nil {
				return err
			}

			start := time.Now()
			results, err := orchestrator.RunAllCQs(ctx, factory, concurrency)
			if err != nil {
				return err
			}

			if err := orchestrator.WriteCQResults(outDir, results); err != nil {
				return err
			}

			fmt.Printf("Evaluated %d questions in %s\n", len(results), time.Since(start).Round(time.Millisecond))
			for _, id := range orchestrator.CQOrder {
				entry, ok := results[id]
				if !ok {
					continue
				}
				status := "ok"
				if entry.Result.Error != "" {
					status = "error"
				}
				fmt.Printf("  %s: %s (%d iterations, %s)\n",
					id, status, entry.Result.Iterations, entry.Duration.Round(time.Millisecond))
			}
			fmt.Printf("Results written to %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "run every competency question")
	cmd.Flags().StringVar(&outDir, "out", "results", "directory for JSON result files")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "maximum parallel sessions")
	return cmd
}

// parseParams converts repeated key=value flags into a parameter map.
func parseParams(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(raw))
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
