// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
	"github.com/AleutianAI/BioTrace/services/agent/llm"
	"github.com/AleutianAI/BioTrace/services/agent/orchestrator"
	"github.com/AleutianAI/BioTrace/services/agent/providers"
	"github.com/AleutianAI/BioTrace/services/agent/tools"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, responses []*providers.ModelResponse) *gin.Engine {
	t.Helper()
	registry, err := tools.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	factory := orchestrator.NewSessionFactory(
		providers.NewMockChatAdapter(responses),
		registry,
		func() *tools.State { return tools.NewState(kg.NewMemoryQuerier(), nil) },
	)
	return NewRouter(NewHandlers(factory))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAsk(t *testing.T) {
	router := newTestRouter(t, []*providers.ModelResponse{
		{Content: "Three cell lines.", StopReason: llm.StopReasonEnd},
	})

	w := doJSON(t, router, http.MethodPost, "/v1/ask", AskRequest{Question: "How many cell lines?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result orchestrator.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Answer != "Three cell lines." || result.Iterations != 1 {
		t.Errorf("result = %+v", result)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestHandleAsk_MissingQuestion(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/ask", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "MISSING_PARAMETER" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestHandleCQ(t *testing.T) {
	router := newTestRouter(t, []*providers.ModelResponse{
		{Content: "CHO-K1 and HEK293.", StopReason: llm.StopReasonEnd},
	})

	w := doJSON(t, router, http.MethodPost, "/v1/cq/CQ2", CQRequest{Parameters: map[string]string{"y": "GFP"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result orchestrator.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Answer != "CHO-K1 and HEK293." {
		t.Errorf("answer = %q", result.Answer)
	}
}

func TestHandleCQ_UnknownID(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/cq/CQ42", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Error, "Unknown CQ: CQ42") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestHandleListCQs(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/cqs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		CQs []CQInfo `json:"cqs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.CQs) != 8 {
		t.Fatalf("cqs = %d, want 8", len(resp.CQs))
	}
	if resp.CQs[0].ID != "CQ1" || resp.CQs[0].Question == "" {
		t.Errorf("first entry = %+v", resp.CQs[0])
	}
}

func TestHandleRunAllCQs(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/cqs/run?concurrency=4", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results map[string]*orchestrator.CQRunResult `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 8 {
		t.Errorf("results = %d, want 8", len(resp.Results))
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
