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
	"sort"

	"github.com/AleutianAI/BioTrace/services/agent/stats"
)

// SummarizeByGroupTool computes descriptive statistics for a value
// column partitioned by a grouping column.
type SummarizeByGroupTool struct{}

func (t *SummarizeByGroupTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "summarize_by_group",
		Description: "Compute summary statistics for a value column grouped by another column.",
		Params: map[string]ParamDef{
			"group_col": {
				Type:        ParamTypeString,
				Description: "Column to group by",
			},
			"value_col": {
				Type:        ParamTypeString,
				Description: "Column to summarize",
			},
		},
		Required: []string{"group_col", "value_col"},
	}
}

func (t *SummarizeByGroupTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
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

	groups := make(map[string][]float64)
	for _, row := range table.Rows {
		if row[groupCol] == nil {
			continue
		}
		v, okNum := toFloat(row[valueCol])
		if !okNum {
			continue
		}
		label := fmt.Sprintf("%v", row[groupCol])
		groups[label] = append(groups[label], v)
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	summary := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		vals := groups[label]
		summary = append(summary, map[string]any{
			groupCol: label,
			"mean":   stats.Mean(vals),
			"std":    stats.StdDev(vals),
			"count":  len(vals),
			"min":    stats.Min(vals),
			"max":    stats.Max(vals),
		})
	}

	return map[string]any{
		"groups":  len(summary),
		"summary": summary,
	}
}
