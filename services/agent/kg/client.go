// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEndpointTimeout = 60 * time.Second
	sparqlResultsMIME      = "application/sparql-results+json"
)

// Row is a single result binding: variable name to value. Numeric literals
// are coerced to float64; everything else is a string.
type Row map[string]any

// Querier executes SPARQL queries against a knowledge graph and returns
// ordered rows over named columns.
type Querier interface {
	// Query runs the given SPARQL query. Columns preserve the SELECT
	// projection order; rows preserve endpoint order.
	Query(ctx context.Context, query string) (columns []string, rows []Row, err error)
}

// ============================================================================
// HTTP SPARQL endpoint client
// ============================================================================

// EndpointClient is a Querier backed by an HTTP SPARQL endpoint speaking
// the SPARQL 1.1 Protocol with JSON results.
//
// Thread Safety: Safe for concurrent use.
type EndpointClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewEndpointClient creates a client for the given SPARQL endpoint URL.
func NewEndpointClient(endpoint string) *EndpointClient {
	return &EndpointClient{
		httpClient: &http.Client{Timeout: defaultEndpointTimeout},
		endpoint:   endpoint,
	}
}

// NewEndpointClientFromEnv creates a client from the BIOTRACE_SPARQL_ENDPOINT
// environment variable.
func NewEndpointClientFromEnv() (*EndpointClient, error) {
	endpoint := os.Getenv("BIOTRACE_SPARQL_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("kg: BIOTRACE_SPARQL_ENDPOINT not set")
	}
	return NewEndpointClient(endpoint), nil
}

// sparqlResults mirrors the SPARQL 1.1 JSON results format.
type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]sparqlBinding `json:"bindings"`
	} `json:"results"`
}

type sparqlBinding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
}

// Query implements Querier by POSTing the query as a form-encoded body and
// decoding application/sparql-results+json.
func (c *EndpointClient) Query(ctx context.Context, query string) ([]string, []Row, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("kg: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", sparqlResultsMIME)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("kg: query request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("kg: failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("kg: endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var results sparqlResults
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, nil, fmt.Errorf("kg: failed to decode results: %w", err)
	}

	rows := make([]Row, 0, len(results.Results.Bindings))
	for _, binding := range results.Results.Bindings {
		row := make(Row, len(binding))
		for name, b := range binding {
			row[name] = coerceLiteral(b)
		}
		rows = append(rows, row)
	}
	return results.Head.Vars, rows, nil
}

// coerceLiteral converts typed numeric literals to float64 and leaves
// everything else as the raw string value.
func coerceLiteral(b sparqlBinding) any {
	if b.Type == "literal" || b.Type == "typed-literal" {
		switch b.Datatype {
		case "http://www.w3.org/2001/XMLSchema#integer",
			"http://www.w3.org/2001/XMLSchema#decimal",
			"http://www.w3.org/2001/XMLSchema#double",
			"http://www.w3.org/2001/XMLSchema#float",
			"http://www.w3.org/2001/XMLSchema#int",
			"http://www.w3.org/2001/XMLSchema#long":
			if f, err := strconv.ParseFloat(b.Value, 64); err == nil {
				return f
			}
		}
	}
	return b.Value
}
