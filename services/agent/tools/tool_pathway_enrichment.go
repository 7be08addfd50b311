// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"

	"github.com/AleutianAI/BioTrace/services/agent/pathways"
)

// PathwayEnrichmentTool runs overrepresentation analysis for a gene list
// against a pathway database. It operates on the provided list, not the
// working table, so it can consume the output of get_significant_genes.
type PathwayEnrichmentTool struct{}

func (t *PathwayEnrichmentTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "get_pathway_enrichment",
		Description: "Perform pathway enrichment analysis on a list of genes. " +
			"Uses KEGG or Reactome to find pathways overrepresented in the gene list.",
		Params: map[string]ParamDef{
			"gene_list": {
				Type:        ParamTypeArray,
				Items:       &ParamDef{Type: ParamTypeString},
				Description: "List of gene symbols to analyze",
			},
			"database": {
				Type:        ParamTypeString,
				Enum:        []string{"kegg", "reactome"},
				Description: "Pathway database to use (default: kegg)",
			},
			"organism": {
				Type:        ParamTypeString,
				Description: "Organism code (hsa=human, mmu=mouse, cge=hamster). Default: hsa",
			},
			"pvalue_threshold": {
				Type:        ParamTypeNumber,
				Description: "P-value cutoff for significant pathways (default: 0.05)",
			},
		},
		Required: []string{"gene_list"},
	}
}

func (t *PathwayEnrichmentTool) Execute(ctx context.Context, args map[string]any, state *State) map[string]any {
	geneList, ok := parseStringArray(args, "gene_list")
	if !ok {
		return map[string]any{
			"enriched_pathways": []pathways.EnrichedPathway{},
			"input_genes":       0,
			"error":             "Empty gene list provided",
		}
	}
	database, _ := parseStringParam(args, "database")
	if database == "" {
		database = "kegg"
	}
	organism, _ := parseStringParam(args, "organism")
	if organism == "" {
		organism = "hsa"
	}
	threshold, ok := parseFloatParam(args, "pvalue_threshold")
	if !ok {
		threshold = pathways.DefaultPValueThreshold
	}

	svc := state.Pathways()
	if svc == nil {
		return errorResult("Pathway enrichment service not configured")
	}

	report := svc.Enrich(ctx, geneList, database, organism, threshold)
	return reportToResult(report)
}

// reportToResult converts an enrichment report into the tool result
// shape. Pathway lists are always present so the summarizer can count
// them.
func reportToResult(report *pathways.Report) map[string]any {
	enriched := report.EnrichedPathways
	if enriched == nil {
		enriched = []pathways.EnrichedPathway{}
	}
	result := map[string]any{
		"enriched_pathways": enriched,
		"input_genes":       report.InputGenes,
	}
	if report.MappedGenes > 0 {
		result["mapped_genes"] = report.MappedGenes
	}
	if report.Organism != "" {
		result["organism"] = report.Organism
	}
	if report.TotalPathwaysTested > 0 {
		result["total_pathways_tested"] = report.TotalPathwaysTested
	}
	if report.Error != "" {
		result["error"] = report.Error
	}
	return result
}
