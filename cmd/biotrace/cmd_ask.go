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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/BioTrace/services/agent/orchestrator"
)

// askCmd answers one free-form question and prints the result.
func askCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a natural language question about the knowledge graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			session, err := factory()
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			result := session.AnswerQuestion(ctx, question)
			return printResult(result, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	return cmd
}

// printResult renders a result either as readable text or as JSON.
func printResult(result *orchestrator.Result, jsonOut bool) error {
	if jsonOut {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Println(result.Answer)
	if len(result.ToolCalls) > 0 {
		fmt.Println("\nTool calls:")
		for i, call := range result.ToolCalls {
			fmt.Printf("%d. %s: %s\n", i+1, call.Tool, call.ResultSummary)
		}
	}
	fmt.Printf("\nIterations: %d\n", result.Iterations)
	if result.Warning != "" {
		fmt.Printf("Warning: %s\n", result.Warning)
	}
	if result.Error != "" {
		return fmt.Errorf("%s", result.Error)
	}
	return nil
}
