// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the question-answering agent over HTTP.
//
// Every request that reaches the agent gets a fresh session from the
// configured SessionFactory, so working-table state never leaks between
// callers.
package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/BioTrace/services/agent/orchestrator"
)

// ErrorResponse is the JSON error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AskRequest is the body for POST /v1/ask.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// CQRequest is the optional body for POST /v1/cq/:id.
type CQRequest struct {
	// Parameters fill question slots, e.g. {"x": "GFP"} rewrites
	// "gene X" to "gene GFP".
	Parameters map[string]string `json:"parameters"`
}

// CQInfo describes one competency question for the listing endpoint.
type CQInfo struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// Handlers holds the HTTP handlers for the agent endpoints.
//
// Thread Safety: Safe for concurrent use; each request gets its own
// orchestrator session from the factory.
type Handlers struct {
	sessions orchestrator.SessionFactory
}

// NewHandlers creates the handler set.
func NewHandlers(sessions orchestrator.SessionFactory) *Handlers {
	return &Handlers{sessions: sessions}
}

// getOrCreateRequestID gets or creates a request ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// HandleAsk handles POST /v1/ask.
//
// Description:
//
//	Answers a free-form natural language question against the knowledge
//	graph. The full tool call history and iteration count come back with
//	the answer.
func (h *Handlers) HandleAsk(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAsk")

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "question is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	session, err := h.sessions()
	if err != nil {
		logger.Error("Session creation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to create agent session",
			Code:  "SESSION_FAILED",
		})
		return
	}

	result := session.AnswerQuestion(c.Request.Context(), req.Question)
	logger.Info("Question answered",
		slog.Int("iterations", result.Iterations),
		slog.Int("tool_calls", len(result.ToolCalls)),
	)
	c.JSON(http.StatusOK, result)
}

// HandleCQ handles POST /v1/cq/:id.
//
// Description:
//
//	Answers one competency question by id (CQ1..CQ8). An optional JSON
//	body supplies slot parameters. Unknown ids return 404.
func (h *Handlers) HandleCQ(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCQ")

	cqID := c.Param("id")

	var req CQRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "malformed request body",
				Code:  "BAD_REQUEST",
			})
			return
		}
	}

	session, err := h.sessions()
	if err != nil {
		logger.Error("Session creation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to create agent session",
			Code:  "SESSION_FAILED",
		})
		return
	}

	result := session.AnswerCQ(c.Request.Context(), cqID, req.Parameters)
	if result.Error != "" && result.Answer == "" && result.Iterations == 0 {
		// Only unknown ids fail before the loop runs.
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: result.Error,
			Code:  "UNKNOWN_CQ",
		})
		return
	}

	logger.Info("CQ answered",
		slog.String("cq", cqID),
		slog.Int("iterations", result.Iterations),
	)
	c.JSON(http.StatusOK, result)
}

// HandleListCQs handles GET /v1/cqs.
func (h *Handlers) HandleListCQs(c *gin.Context) {
	cqs := make([]CQInfo, 0, len(orchestrator.CQOrder))
	for _, id := range orchestrator.CQOrder {
		cqs = append(cqs, CQInfo{ID: id, Question: orchestrator.CQDescriptions[id]})
	}
	c.JSON(http.StatusOK, gin.H{"cqs": cqs})
}

// HandleRunAllCQs handles POST /v1/cqs/run.
//
// Description:
//
//	Evaluates every competency question with independent sessions. The
//	"concurrency" query parameter bounds parallelism (default 2).
func (h *Handlers) HandleRunAllCQs(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRunAllCQs")

	concurrency := 2
	if raw := c.Query("concurrency"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			concurrency = parsed
		}
	}

	results, err := orchestrator.RunAllCQs(c.Request.Context(), h.sessions, concurrency)
	if err != nil {
		logger.Error("Evaluation run failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "EVAL_FAILED",
		})
		return
	}

	logger.Info("Evaluation run complete", slog.Int("questions", len(results)))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
