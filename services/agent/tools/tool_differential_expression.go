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
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
)

const (
	defaultLog2FCThreshold = 1.0
	defaultPValueThreshold = 0.05
	defaultGeneCol         = "gene"
	defaultValueCol        = "expressionValue"
	defaultCellLineCol     = "cellLineLabel"
	deTopGenes             = 10
)

// DifferentialExpressionTool computes per-gene log2 fold change and
// p-values between two groups and stores the full result for follow-up
// tools.
type DifferentialExpressionTool struct{}

func (t *DifferentialExpressionTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "differential_expression",
		Description: "Perform differential expression analysis between two groups. " +
			"Computes log2 fold change and p-value for each gene. " +
			"Use the cell_line parameter to filter by a specific cell line.",
		Params: map[string]ParamDef{
			"group_col": {
				Type:        ParamTypeString,
				Description: "Column containing group labels (e.g., processType)",
			},
			"group1": {
				Type:        ParamTypeString,
				Description: "Label for treatment/condition group",
			},
			"group2": {
				Type:        ParamTypeString,
				Description: "Label for control/reference group",
			},
			"cell_line": {
				Type:        ParamTypeString,
				Description: "Cell line to filter by (e.g., HEK293, CHO-K1). Partial match.",
			},
			"gene_col": {
				Type:        ParamTypeString,
				Description: "Column containing gene identifiers (default: gene)",
			},
			"value_col": {
				Type:        ParamTypeString,
				Description: "Column containing expression values (default: expressionValue)",
			},
			"log2fc_threshold": {
				Type:        ParamTypeNumber,
				Description: "Minimum absolute log2 fold change for significance (default: 1.0)",
			},
			"pvalue_threshold": {
				Type:        ParamTypeNumber,
				Description: "Maximum p-value for significance (default: 0.05)",
			},
		},
		Required: []string{"group_col", "group1", "group2"},
	}
}

func (t *DifferentialExpressionTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
	table := state.Table()
	if table.Empty() {
		return errorResult(msgNoDataLoaded)
	}

	groupCol, ok := parseStringParam(args, "group_col")
	if !ok {
		return missingParam("group_col")
	}
	group1, ok := parseStringParam(args, "group1")
	if !ok {
		return missingParam("group1")
	}
	group2, ok := parseStringParam(args, "group2")
	if !ok {
		return missingParam("group2")
	}

	geneCol, _ := parseStringParam(args, "gene_col")
	if geneCol == "" {
		geneCol = defaultGeneCol
	}
	valueCol, _ := parseStringParam(args, "value_col")
	if valueCol == "" {
		valueCol = defaultValueCol
	}
	log2fcThreshold, ok := parseFloatParam(args, "log2fc_threshold")
	if !ok {
		log2fcThreshold = defaultLog2FCThreshold
	}
	pvalueThreshold, ok := parseFloatParam(args, "pvalue_threshold")
	if !ok {
		pvalueThreshold = defaultPValueThreshold
	}
	cellLine, _ := parseStringParam(args, "cell_line")

	rows := table.Rows
	if cellLine != "" && table.HasColumn(defaultCellLineCol) {
		needle := strings.ToLower(cellLine)
		var filtered []kg.Row
		for _, row := range rows {
			label := strings.ToLower(fmt.Sprintf("%v", row[defaultCellLineCol]))
			if strings.Contains(label, needle) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	results := analyzeGenes(rows, geneCol, valueCol, groupCol, group1, group2, log2fcThreshold, pvalueThreshold)
	state.SetDEResults(results)

	var sigCount, up, down int
	for _, g := range results {
		if g.Significant {
			sigCount++
			if g.Direction != nil && *g.Direction == "up" {
				up++
			} else if g.Direction != nil && *g.Direction == "down" {
				down++
			}
		}
	}

	topN := deTopGenes
	if topN > len(results) {
		topN = len(results)
	}

	return map[string]any{
		"total_genes":       len(results),
		"significant_genes": sigCount,
		"upregulated":       up,
		"downregulated":     down,
		"top_genes":         results[:topN],
	}
}

// analyzeGenes runs the per-gene fold change analysis and returns rows
// sorted by significance, then by absolute fold change, both descending.
func analyzeGenes(rows []kg.Row, geneCol, valueCol, groupCol, group1, group2 string, log2fcThreshold, pvalueThreshold float64) []DEGene {
	// Unique genes in first-seen order.
	var genes []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		g := fmt.Sprintf("%v", row[geneCol])
		if row[geneCol] == nil || g == "" {
			continue
		}
		if _, dup := seen[g]; !dup {
			seen[g] = struct{}{}
			genes = append(genes, g)
		}
	}

	results := make([]DEGene, 0, len(genes))
	for _, gene := range genes {
		var geneRows []kg.Row
		for _, row := range rows {
			if fmt.Sprintf("%v", row[geneCol]) == gene {
				geneRows = append(geneRows, row)
			}
		}

		g1, g2 := groupValues(geneRows, groupCol, valueCol, group1, group2)
		fc := foldChangeResult(g1, g2)

		entry := DEGene{
			Gene:    gene,
			NGroup1: len(g1),
			NGroup2: len(g2),
		}
		if v, ok := fc["fold_change"].(float64); ok {
			entry.Log2FoldChange = &v
		}
		if v, ok := fc["mean_group1"].(float64); ok {
			entry.MeanGroup1 = &v
		}
		if v, ok := fc["mean_group2"].(float64); ok {
			entry.MeanGroup2 = &v
		}
		if v, ok := fc["p_value"].(float64); ok {
			entry.PValue = &v
		}

		passesFC := entry.Log2FoldChange != nil && math.Abs(*entry.Log2FoldChange) >= log2fcThreshold
		passesP := entry.PValue != nil && *entry.PValue < pvalueThreshold
		// Without enough samples for a p-value, fold change alone decides.
		entry.Significant = passesFC && (passesP || entry.PValue == nil)

		if passesFC {
			dir := "down"
			if *entry.Log2FoldChange > 0 {
				dir = "up"
			}
			entry.Direction = &dir
		}
		results = append(results, entry)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Significant != results[j].Significant {
			return results[i].Significant
		}
		return absOrZero(results[i].Log2FoldChange) > absOrZero(results[j].Log2FoldChange)
	})
	return results
}

func absOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return math.Abs(*v)
}
