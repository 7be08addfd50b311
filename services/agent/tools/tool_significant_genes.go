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

import "context"

// SignificantGenesTool extracts the significant gene list from the most
// recent differential expression run, feeding workflows like pathway
// enrichment.
type SignificantGenesTool struct{}

func (t *SignificantGenesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_significant_genes",
		Description: "Extract significant genes from differential expression results.",
		Params: map[string]ParamDef{
			"direction": {
				Type:        ParamTypeString,
				Enum:        []string{"up", "down", "both"},
				Description: "Filter by direction of change (default: both)",
			},
		},
	}
}

func (t *SignificantGenesTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
	results := state.DEResults()
	if len(results) == 0 {
		return errorResult(msgNoDEResults)
	}

	direction, _ := parseStringParam(args, "direction")
	if direction == "" {
		direction = "both"
	}

	genes := []string{}
	for _, g := range results {
		if !g.Significant {
			continue
		}
		if direction != "both" {
			if g.Direction == nil || *g.Direction != direction {
				continue
			}
		}
		genes = append(genes, g.Gene)
	}

	return map[string]any{
		"gene_count": len(genes),
		"genes":      genes,
	}
}
