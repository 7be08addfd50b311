// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator runs the bounded model/tool interaction loop that
// answers analytical questions over the bioprocess knowledge graph.
//
// Each question drives a conversation: the model either answers directly
// or requests tool calls, whose results are appended to the history before
// the next model turn. The loop is budgeted; exhausting the budget yields
// a partial answer with a warning rather than an error.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/BioTrace/services/agent/llm"
	"github.com/AleutianAI/BioTrace/services/agent/providers"
	"github.com/AleutianAI/BioTrace/services/agent/tools"
)

const orchestratorTracerName = "biotrace.orchestrator"

// DefaultMaxIterations bounds the model/tool loop per question.
const DefaultMaxIterations = 10

// ToolCallRecord is one entry of the tool call history returned with an
// answer.
type ToolCallRecord struct {
	Tool          string         `json:"tool"`
	Arguments     map[string]any `json:"arguments"`
	ResultSummary string         `json:"result_summary"`
}

// Result is the outcome of answering one question.
type Result struct {
	// Answer is the model's final (or partial) answer text.
	Answer string `json:"answer"`

	// ToolCalls is the full tool call history across iterations.
	ToolCalls []ToolCallRecord `json:"tool_calls"`

	// Iterations is the number of model turns consumed.
	Iterations int `json:"iterations"`

	// Warning is set when the iteration budget was exhausted.
	Warning string `json:"warning,omitempty"`

	// Error is set when the question could not be answered normally:
	// unknown question ids and backend failures. Answer may still carry
	// the explanatory text.
	Error string `json:"error,omitempty"`
}

// Orchestrator coordinates a provider and a tool executor to answer
// questions.
//
// Thread Safety: Not safe for concurrent use; tool state is shared across
// the questions asked through one orchestrator. Create one orchestrator
// per concurrent session.
type Orchestrator struct {
	provider      providers.ChatProvider
	executor      *tools.Executor
	maxIterations int
	verbose       bool
	systemPrompt  string
	sessionID     string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxIterations overrides the iteration budget.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithVerbose enables per-iteration debug logging.
func WithVerbose(v bool) Option {
	return func(o *Orchestrator) { o.verbose = v }
}

// New creates an orchestrator over a provider and tool executor.
func New(provider providers.ChatProvider, executor *tools.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:      provider,
		executor:      executor,
		maxIterations: DefaultMaxIterations,
		systemPrompt:  BuildSystemPrompt(executor.Registry().Definitions()),
		sessionID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SessionID returns the unique id of this orchestrator session.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// SystemPrompt returns the rendered system prompt.
func (o *Orchestrator) SystemPrompt() string { return o.systemPrompt }

// AnswerQuestion answers a natural language question about the data.
//
// Description:
//
//	Runs the bounded loop. A response without tool calls terminates the
//	loop and becomes the answer; backend failures terminate the same way
//	with Result.Error set. Exhausting the budget returns the last text
//	prefixed with "Maximum iterations reached. Partial answer: " and a
//	warning.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, question string) *Result {
	tracer := otel.Tracer(orchestratorTracerName)
	ctx, span := tracer.Start(ctx, "orchestrator.AnswerQuestion")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", o.sessionID),
		attribute.String("provider", o.provider.Name()),
	)

	history := []llm.ChatMessage{{Role: "user", Content: question}}
	var callHistory []ToolCallRecord
	catalog := o.executor.Registry().WireCatalog()

	var lastContent string
	for iteration := 0; iteration < o.maxIterations; iteration++ {
		if o.verbose {
			slog.Debug("orchestration iteration",
				"session", o.sessionID, "iteration", iteration+1)
		}

		response := o.provider.CreateMessage(ctx, history, o.systemPrompt, catalog, 0)
		lastContent = response.Content

		if len(response.ToolCalls) == 0 {
			span.SetAttributes(attribute.Int("iterations", iteration+1))
			result := &Result{
				Answer:     response.Content,
				ToolCalls:  callHistory,
				Iterations: iteration + 1,
			}
			if response.StopReason == llm.StopReasonError {
				result.Error = response.Content
			}
			return result
		}

		// Execute the requested tools in order; later calls in the same
		// turn observe the state written by earlier ones.
		var toolMessages []llm.ChatMessage
		for _, call := range response.ToolCalls {
			args, err := call.ArgumentsMap()
			var toolResult map[string]any
			if err != nil {
				toolResult = map[string]any{
					"error": fmt.Sprintf("Invalid tool arguments: %v", err),
				}
			} else {
				toolResult = o.executor.Execute(ctx, call.Name, args)
			}

			callHistory = append(callHistory, ToolCallRecord{
				Tool:          call.Name,
				Arguments:     args,
				ResultSummary: summarizeResult(toolResult),
			})

			encoded, err := json.Marshal(toolResult)
			if err != nil {
				encoded = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
			}
			toolMessages = append(toolMessages, llm.ChatMessage{
				Role:       "tool",
				Content:    string(encoded),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}

		history = append(history, llm.ChatMessage{
			Role:      "assistant",
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})
		history = append(history, toolMessages...)
	}

	span.SetAttributes(
		attribute.Int("iterations", o.maxIterations),
		attribute.Bool("budget_exhausted", true),
	)
	slog.Warn("iteration budget exhausted",
		"session", o.sessionID, "max_iterations", o.maxIterations)

	return &Result{
		Answer:     "Maximum iterations reached. Partial answer: " + lastContent,
		ToolCalls:  callHistory,
		Iterations: o.maxIterations,
		Warning:    "Max iterations reached",
	}
}
