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
	"strings"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
	"github.com/AleutianAI/BioTrace/services/agent/stats"
)

// foldChangePseudocount is added to both group means before taking the
// log to avoid log(0).
const foldChangePseudocount = 1.0

// FoldChangeTool computes log2 fold change between two groups of rows,
// with a Welch t-test when both groups have enough samples.
type FoldChangeTool struct{}

func (t *FoldChangeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "compute_fold_change",
		Description: "Compute fold change between two groups. Returns log2 fold change " +
			"and t-test p-value for significance testing.",
		Params: map[string]ParamDef{
			"group_col": {
				Type:        ParamTypeString,
				Description: "Column containing group labels",
			},
			"value_col": {
				Type:        ParamTypeString,
				Description: "Column containing values to compare",
			},
			"group1": {
				Type:        ParamTypeString,
				Description: "Label for the first group (numerator)",
			},
			"group2": {
				Type:        ParamTypeString,
				Description: "Label for the second group (denominator/reference)",
			},
		},
		Required: []string{"group_col", "value_col", "group1", "group2"},
	}
}

func (t *FoldChangeTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
	table := state.Table()
	if table.Empty() {
		return errorResult(msgNoDataLoaded)
	}

	groupCol, ok := parseStringParam(args, "group_col")
	if !ok {
		return missingParam("group_col")
	}
	valueCol, ok := parseStringParam(args, "value_col")
	if !ok {
		return missingParam("value_col")
	}
	group1, ok := parseStringParam(args, "group1")
	if !ok {
		return missingParam("group1")
	}
	group2, ok := parseStringParam(args, "group2")
	if !ok {
		return missingParam("group2")
	}

	g1, g2 := groupValues(table.Rows, groupCol, valueCol, group1, group2)
	return foldChangeResult(g1, g2)
}

// groupValues splits numeric values of valueCol by case-insensitive
// substring match of the group labels against groupCol. Substring
// matching lets short labels match full URIs.
func groupValues(rows []kg.Row, groupCol, valueCol, group1, group2 string) (g1, g2 []float64) {
	l1 := strings.ToLower(group1)
	l2 := strings.ToLower(group2)
	for _, row := range rows {
		label := strings.ToLower(fmt.Sprintf("%v", row[groupCol]))
		v, ok := toFloat(row[valueCol])
		if !ok {
			continue
		}
		if strings.Contains(label, l1) {
			g1 = append(g1, v)
		}
		if strings.Contains(label, l2) {
			g2 = append(g2, v)
		}
	}
	return g1, g2
}

// foldChangeResult computes the shared fold change statistics used by
// both the standalone tool and differential expression.
func foldChangeResult(g1, g2 []float64) map[string]any {
	n1, n2 := len(g1), len(g2)

	if n1 == 0 || n2 == 0 {
		result := map[string]any{
			"fold_change": nil,
			"mean_group1": nil,
			"mean_group2": nil,
			"n_group1":    n1,
			"n_group2":    n2,
			"p_value":     nil,
			"significant": false,
			"error":       fmt.Sprintf("Empty group(s): group1=%d, group2=%d", n1, n2),
		}
		if n1 > 0 {
			result["mean_group1"] = stats.Mean(g1)
		}
		if n2 > 0 {
			result["mean_group2"] = stats.Mean(g2)
		}
		return result
	}

	mean1 := stats.Mean(g1)
	mean2 := stats.Mean(g2)
	fc := math.Log2((mean1 + foldChangePseudocount) / (mean2 + foldChangePseudocount))

	result := map[string]any{
		"fold_change": nil,
		"log2":        true,
		"mean_group1": mean1,
		"mean_group2": mean2,
		"n_group1":    n1,
		"n_group2":    n2,
		"p_value":     nil,
		"significant": false,
	}
	if !math.IsNaN(fc) && !math.IsInf(fc, 0) {
		result["fold_change"] = fc
	}

	if n1 >= 2 && n2 >= 2 {
		if _, p := stats.WelchTTest(g1, g2); !math.IsNaN(p) {
			result["p_value"] = p
			result["significant"] = p < 0.05
		}
	}
	return result
}
