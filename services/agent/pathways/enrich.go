// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pathways performs gene set overrepresentation analysis against
// pathway databases: a bundled local JSON database, the KEGG REST API, and
// the Reactome Analysis Service.
package pathways

import (
	"sort"
	"strings"

	"github.com/AleutianAI/BioTrace/services/agent/stats"
)

// DefaultPValueThreshold is the significance cutoff applied when the
// caller does not provide one.
const DefaultPValueThreshold = 0.05

// OrganismCodes maps common organism names to KEGG organism codes.
var OrganismCodes = map[string]string{
	"human": "hsa",
	"mouse": "mmu",
	"rat":   "rno",
	// Chinese hamster, for CHO cell lines.
	"hamster": "cge",
}

// EnrichedPathway is one pathway retained by the enrichment analysis.
type EnrichedPathway struct {
	PathwayID      string   `json:"pathway_id"`
	PathwayName    string   `json:"pathway_name,omitempty"`
	OverlapCount   int      `json:"overlap_count"`
	PathwaySize    int      `json:"pathway_size"`
	QuerySize      int      `json:"query_size"`
	BackgroundSize int      `json:"background_size,omitempty"`
	PValue         float64  `json:"p_value"`
	PAdjusted      float64  `json:"p_adjusted"`
	OverlapGenes   []string `json:"overlap_genes,omitempty"`
}

// Report is the result of an enrichment run.
type Report struct {
	EnrichedPathways    []EnrichedPathway `json:"enriched_pathways"`
	InputGenes          int               `json:"input_genes"`
	MappedGenes         int               `json:"mapped_genes,omitempty"`
	Organism            string            `json:"organism,omitempty"`
	TotalPathwaysTested int               `json:"total_pathways_tested,omitempty"`
	Error               string            `json:"error,omitempty"`
}

// scorePathway runs the hypergeometric over-representation test for a
// single pathway.
//
// Description:
//
//	Population size is the background set; successes in the population
//	are pathway genes present in the background; draws are query genes
//	present in the background; observed successes are the query/pathway
//	overlap. The p-value is P(X >= overlap).
func scorePathway(query, pathway, background map[string]struct{}, pathwayID string) (EnrichedPathway, bool) {
	m := len(background)

	pathwayInBg := 0
	for g := range pathway {
		if _, ok := background[g]; ok {
			pathwayInBg++
		}
	}
	queryInBg := 0
	for g := range query {
		if _, ok := background[g]; ok {
			queryInBg++
		}
	}

	var overlap []string
	for g := range query {
		if _, ok := pathway[g]; ok {
			overlap = append(overlap, g)
		}
	}
	sort.Strings(overlap)
	k := len(overlap)

	if m == 0 || pathwayInBg == 0 || queryInBg == 0 {
		return EnrichedPathway{
			PathwayID:    pathwayID,
			OverlapCount: k,
			PathwaySize:  pathwayInBg,
			QuerySize:    queryInBg,
		}, false
	}

	return EnrichedPathway{
		PathwayID:      pathwayID,
		OverlapCount:   k,
		PathwaySize:    pathwayInBg,
		QuerySize:      queryInBg,
		BackgroundSize: m,
		PValue:         stats.HypergeomSurvival(k, m, pathwayInBg, queryInBg),
		OverlapGenes:   overlap,
	}, true
}

// finalizeEnrichment sorts retained pathways by ascending p-value and
// applies the Benjamini-Hochberg correction over the retained list.
func finalizeEnrichment(retained []EnrichedPathway) []EnrichedPathway {
	sort.Slice(retained, func(i, j int) bool {
		if retained[i].PValue != retained[j].PValue {
			return retained[i].PValue < retained[j].PValue
		}
		return retained[i].PathwayID < retained[j].PathwayID
	})

	ps := make([]float64, len(retained))
	for i := range retained {
		ps[i] = retained[i].PValue
	}
	adjusted := stats.BenjaminiHochberg(ps)
	for i := range retained {
		retained[i].PAdjusted = adjusted[i]
	}
	return retained
}

// geneSet builds an uppercased lookup set from a gene list.
func geneSet(genes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		set[strings.ToUpper(g)] = struct{}{}
	}
	return set
}
