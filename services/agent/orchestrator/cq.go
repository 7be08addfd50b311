// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/BioTrace/services/agent/providers"
	"github.com/AleutianAI/BioTrace/services/agent/tools"
)

// CQOrder lists the competency question ids in canonical order.
var CQOrder = []string{"CQ1", "CQ2", "CQ3", "CQ4", "CQ5", "CQ6", "CQ7", "CQ8"}

// CQDescriptions maps competency question ids to their question text.
// Parameter slots like "gene X" are replaced by AnswerCQ when parameters
// are supplied.
var CQDescriptions = map[string]string{
	"CQ1": "Under what culture conditions (pH, dissolved oxygen, temperature) do the cells reach peak recombinant protein productivity?",
	"CQ2": "Which cell lines have been engineered to overexpress gene Y?",
	"CQ3": "Which nutrient concentrations in cell line K are most associated with viable cell density above Z at day 6 of culture?",
	"CQ4": "How does the expression of gene X vary between clone A and clone B?",
	"CQ5": "What pathways are differentially expressed under Fed-batch vs Perfusion in cell line K?",
	"CQ6": "Which are the top genes correlated with recombinant protein productivity in the stationary phase of all experiments?",
	"CQ7": "Which genes have the highest fold change between cells with viability (>90%) and those without (<50%)?",
	"CQ8": "Which cell lines or subclones are best suited for glycosylation profiles required for therapeutic protein X?",
}

// AnswerCQ answers one competency question by id.
//
// Description:
//
//	Parameters substitute into the question text: the key "x" with value
//	"GFP" rewrites "gene X" to "gene GFP", and likewise for "clone" and
//	"cell line" slots.
func (o *Orchestrator) AnswerCQ(ctx context.Context, cqID string, parameters map[string]string) *Result {
	id := strings.ToUpper(cqID)
	description, ok := CQDescriptions[id]
	if !ok {
		return &Result{
			Error: fmt.Sprintf("Unknown CQ: %s. Valid: %s", cqID, strings.Join(CQOrder, ", ")),
		}
	}

	for key, value := range parameters {
		upper := strings.ToUpper(key)
		description = strings.ReplaceAll(description, "gene "+upper, "gene "+value)
		description = strings.ReplaceAll(description, "clone "+upper, "clone "+value)
		description = strings.ReplaceAll(description, "cell line "+upper, "cell line "+value)
	}

	return o.AnswerQuestion(ctx, description)
}

// CQRunResult is one entry of a full evaluation run.
type CQRunResult struct {
	CQ       string        `json:"cq"`
	Question string        `json:"question"`
	Result   *Result       `json:"result"`
	Duration time.Duration `json:"duration_ns"`
}

// SessionFactory builds a fresh orchestrator session. Each competency
// question in a parallel run gets its own session so tool state is not
// shared across questions.
type SessionFactory func() (*Orchestrator, error)

// NewSessionFactory returns a factory producing orchestrators that share
// a provider and registry but get fresh tool state per session.
func NewSessionFactory(provider providers.ChatProvider, registry *tools.Registry, newState func() *tools.State, opts ...Option) SessionFactory {
	return func() (*Orchestrator, error) {
		return New(provider, tools.NewExecutor(registry, newState()), opts...), nil
	}
}

// RunAllCQs evaluates every competency question, at most concurrency at
// a time, and returns results keyed by CQ id.
//
// Inputs:
//   - factory: Produces one orchestrator session per question.
//   - concurrency: Maximum parallel sessions; values below 1 mean serial.
func RunAllCQs(ctx context.Context, factory SessionFactory, concurrency int) (map[string]*CQRunResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	results := make(map[string]*CQRunResult, len(CQOrder))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, cqID := range CQOrder {
		g.Go(func() error {
			session, err := factory()
			if err != nil {
				return fmt.Errorf("orchestrator: failed to create session for %s: %w", cqID, err)
			}

			start := time.Now()
			result := session.AnswerCQ(ctx, cqID, nil)
			entry := &CQRunResult{
				CQ:       cqID,
				Question: CQDescriptions[cqID],
				Result:   result,
				Duration: time.Since(start),
			}

			mu.Lock()
			results[cqID] = entry
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// WriteCQResults persists an evaluation run as JSON files under dir: one
// file per question (cq1.json, ...) plus a summary.json with per-question
// timing and answer status.
func WriteCQResults(dir string, results map[string]*CQRunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("orchestrator: creating results dir: %w", err)
	}

	type summaryEntry struct {
		CQ         string  `json:"cq"`
		Iterations int     `json:"iterations"`
		ToolCalls  int     `json:"tool_calls"`
		DurationMS float64 `json:"duration_ms"`
		Answered   bool    `json:"answered"`
	}
	summary := make([]summaryEntry, 0, len(results))

	for _, cqID := range CQOrder {
		entry, ok := results[cqID]
		if !ok {
			continue
		}

		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("orchestrator: encoding %s result: %w", cqID, err)
		}
		path := filepath.Join(dir, strings.ToLower(cqID)+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("orchestrator: writing %s: %w", path, err)
		}

		summary = append(summary, summaryEntry{
			CQ:         cqID,
			Iterations: entry.Result.Iterations,
			ToolCalls:  len(entry.Result.ToolCalls),
			DurationMS: float64(entry.Duration) / float64(time.Millisecond),
			Answered:   entry.Result.Error == "",
		})
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: encoding summary: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "summary.json"), data, 0o644)
}
