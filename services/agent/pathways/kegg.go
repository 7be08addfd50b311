// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pathways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultKEGGBaseURL = "https://rest.kegg.jp"
	keggRequestTimeout = 60 * time.Second
)

// KEGG allows at most 3 requests per second from a single client.
const keggRequestsPerSecond = 3

// KEGGClient queries the KEGG REST API for pathway-gene associations and
// runs overrepresentation analysis against them.
//
// Thread Safety: Safe for concurrent use; the rate limiter serializes
// request admission across goroutines.
type KEGGClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewKEGGClient creates a client against the public KEGG REST API.
func NewKEGGClient() *KEGGClient {
	return NewKEGGClientWithConfig(defaultKEGGBaseURL)
}

// NewKEGGClientWithConfig creates a client against a specific base URL.
// Used by tests to point at a local server.
func NewKEGGClientWithConfig(baseURL string) *KEGGClient {
	return &KEGGClient{
		httpClient: &http.Client{Timeout: keggRequestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(keggRequestsPerSecond), 1),
	}
}

// get performs a rate-limited GET and returns the response body.
func (c *KEGGClient) get(ctx context.Context, path string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("pathways: rate limiter wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("pathways: failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pathways: KEGG request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("pathways: failed to read KEGG response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pathways: KEGG returned status %d for %s", resp.StatusCode, path)
	}
	return string(body), nil
}

// PathwayGeneLinks fetches pathway-to-gene associations for an organism.
//
// Outputs:
//   - map[string]map[string]struct{}: Pathway ID (without the "path:"
//     prefix) to the set of member gene IDs.
func (c *KEGGClient) PathwayGeneLinks(ctx context.Context, organism string) (map[string]map[string]struct{}, error) {
	body, err := c.get(ctx, "/link/"+organism+"/pathway")
	if err != nil {
		return nil, err
	}

	links := make(map[string]map[string]struct{})
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			continue
		}
		pathwayID := strings.TrimPrefix(parts[0], "path:")
		geneID := parts[1]
		if links[pathwayID] == nil {
			links[pathwayID] = make(map[string]struct{})
		}
		links[pathwayID][geneID] = struct{}{}
	}
	return links, nil
}

// PathwayNames fetches human-readable pathway names for an organism.
func (c *KEGGClient) PathwayNames(ctx context.Context, organism string) (map[string]string, error) {
	body, err := c.get(ctx, "/list/pathway/"+organism)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			continue
		}
		names[strings.TrimPrefix(parts[0], "path:")] = parts[1]
	}
	return names, nil
}

// Enrich runs overrepresentation analysis for a gene list against KEGG
// pathways for the given organism.
//
// Description:
//
//	Gene symbols are mapped to KEGG identifiers as "<organism>:<SYMBOL>".
//	The background is the union of genes across all fetched pathways;
//	pathways with p below the threshold are retained, sorted ascending,
//	and FDR-corrected.
func (c *KEGGClient) Enrich(ctx context.Context, geneList []string, organism string, pvalueThreshold float64) *Report {
	if len(geneList) == 0 {
		return &Report{InputGenes: 0, Error: "Empty gene list provided"}
	}
	if pvalueThreshold <= 0 {
		pvalueThreshold = DefaultPValueThreshold
	}

	links, err := c.PathwayGeneLinks(ctx, organism)
	if err != nil {
		return &Report{InputGenes: len(geneList), Error: err.Error()}
	}
	if len(links) == 0 {
		return &Report{
			InputGenes: len(geneList),
			Error:      "Could not retrieve pathway-gene links from KEGG",
		}
	}

	names, err := c.PathwayNames(ctx, organism)
	if err != nil {
		// Names are cosmetic; enrichment proceeds without them.
		names = map[string]string{}
	}

	background := make(map[string]struct{})
	for _, genes := range links {
		for g := range genes {
			background[g] = struct{}{}
		}
	}

	query := make(map[string]struct{}, len(geneList))
	for _, g := range geneList {
		query[organism+":"+strings.ToUpper(g)] = struct{}{}
	}

	ids := make([]string, 0, len(links))
	for id := range links {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var retained []EnrichedPathway
	for _, id := range ids {
		scored, ok := scorePathway(query, links[id], background, id)
		if !ok {
			continue
		}
		scored.PathwayName = names[id]
		if scored.PValue < pvalueThreshold {
			retained = append(retained, scored)
		}
	}

	return &Report{
		EnrichedPathways:    finalizeEnrichment(retained),
		InputGenes:          len(geneList),
		MappedGenes:         len(query),
		Organism:            organism,
		TotalPathwaysTested: len(links),
	}
}
