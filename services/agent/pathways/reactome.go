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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultReactomeBaseURL = "https://reactome.org"
	reactomeAnalysisPath   = "/AnalysisService/identifiers/projection"
	reactomeTimeout        = 60 * time.Second
)

// ReactomeClient queries the Reactome Analysis Service for pathway
// overrepresentation analysis. Unlike the KEGG path, Reactome computes
// the statistics server-side.
//
// Thread Safety: Safe for concurrent use.
type ReactomeClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewReactomeClient creates a client against the public Reactome API.
func NewReactomeClient() *ReactomeClient {
	return NewReactomeClientWithConfig(defaultReactomeBaseURL)
}

// NewReactomeClientWithConfig creates a client against a specific base
// URL. Used by tests to point at a local server.
func NewReactomeClientWithConfig(baseURL string) *ReactomeClient {
	return &ReactomeClient{
		httpClient: &http.Client{Timeout: reactomeTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// reactomeAnalysisResponse mirrors the Analysis Service response shape,
// limited to the fields consumed here.
type reactomeAnalysisResponse struct {
	Pathways []struct {
		StID     string `json:"stId"`
		Name     string `json:"name"`
		Entities struct {
			PValue float64 `json:"pValue"`
			FDR    float64 `json:"fdr"`
			Found  int     `json:"found"`
			Total  int     `json:"total"`
		} `json:"entities"`
		Species struct {
			Name string `json:"name"`
		} `json:"species"`
	} `json:"pathways"`
	IdentifiersNotFound int `json:"identifiersNotFound"`
}

// Enrich submits a gene list to the Analysis Service and returns pathways
// below the p-value threshold.
func (c *ReactomeClient) Enrich(ctx context.Context, geneList []string, species string, pvalueThreshold float64) *Report {
	if len(geneList) == 0 {
		return &Report{InputGenes: 0, Error: "Empty gene list provided"}
	}
	if pvalueThreshold <= 0 {
		pvalueThreshold = DefaultPValueThreshold
	}

	params := url.Values{
		"pageSize":       {"100"},
		"page":           {"1"},
		"sortBy":         {"ENTITIES_PVALUE"},
		"order":          {"ASC"},
		"resource":       {"TOTAL"},
		"pValue":         {fmt.Sprintf("%g", pvalueThreshold)},
		"includeDisease": {"false"},
	}

	endpoint := c.baseURL + reactomeAnalysisPath + "?" + params.Encode()
	payload := strings.Join(geneList, "\n")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return &Report{InputGenes: len(geneList), Error: err.Error()}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Report{InputGenes: len(geneList), Error: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Report{InputGenes: len(geneList), Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return &Report{
			InputGenes: len(geneList),
			Error:      fmt.Sprintf("Reactome API error: %d", resp.StatusCode),
		}
	}

	var analysis reactomeAnalysisResponse
	if err := json.Unmarshal(body, &analysis); err != nil {
		return &Report{InputGenes: len(geneList), Error: err.Error()}
	}

	var enriched []EnrichedPathway
	for _, pw := range analysis.Pathways {
		if pw.Entities.PValue >= pvalueThreshold {
			continue
		}
		enriched = append(enriched, EnrichedPathway{
			PathwayID:    pw.StID,
			PathwayName:  pw.Name,
			PValue:       pw.Entities.PValue,
			PAdjusted:    pw.Entities.FDR,
			OverlapCount: pw.Entities.Found,
			PathwaySize:  pw.Entities.Total,
		})
	}

	return &Report{
		EnrichedPathways: enriched,
		InputGenes:       len(geneList),
		MappedGenes:      analysis.IdentifiersNotFound,
		Organism:         species,
	}
}
