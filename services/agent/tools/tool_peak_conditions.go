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
	"strings"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
	"github.com/AleutianAI/BioTrace/services/agent/stats"
)

const defaultPeakTopN = 5

// PeakConditionsTool groups rows by condition column combinations and
// finds the combinations with the highest aggregated metric.
type PeakConditionsTool struct{}

func (t *PeakConditionsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "find_peak_conditions",
		Description: "Find conditions associated with peak values of a metric. " +
			"Groups data by condition columns and finds combinations with highest metric values.",
		Params: map[string]ParamDef{
			"condition_cols": {
				Type:        ParamTypeArray,
				Items:       &ParamDef{Type: ParamTypeString},
				Description: "List of column names representing conditions (e.g., temperature, pH)",
			},
			"metric_col": {
				Type:        ParamTypeString,
				Description: "Column containing the metric to optimize (e.g., productivityValue)",
			},
			"method": {
				Type:        ParamTypeString,
				Enum:        []string{"max", "mean", "median"},
				Description: "How to aggregate within condition groups (default: mean)",
			},
			"top_n": {
				Type:        ParamTypeInteger,
				Description: "Number of top condition combinations to return (default: 5)",
			},
		},
		Required: []string{"condition_cols", "metric_col"},
	}
}

func (t *PeakConditionsTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
	table := state.Table()
	if table.Empty() {
		return errorResult(msgNoDataLoaded)
	}

	conditionCols, ok := parseStringArray(args, "condition_cols")
	if !ok {
		return missingParam("condition_cols")
	}
	metricCol, ok := parseStringParam(args, "metric_col")
	if !ok {
		return missingParam("metric_col")
	}
	method, _ := parseStringParam(args, "method")
	if method == "" {
		method = "mean"
	}
	topN, ok := parseIntParam(args, "top_n")
	if !ok || topN <= 0 {
		topN = defaultPeakTopN
	}

	// Keep only rows with a numeric metric value.
	var validRows []kg.Row
	var metricValues []float64
	for _, row := range table.Rows {
		if v, ok := toFloat(row[metricCol]); ok {
			validRows = append(validRows, row)
			metricValues = append(metricValues, v)
		}
	}
	if len(validRows) == 0 {
		return map[string]any{
			"top_conditions": []map[string]any{},
			"overall_best":   nil,
			"metric_stats":   nil,
			"error":          "No valid data",
		}
	}

	metricStats := map[string]any{
		"mean":  stats.Mean(metricValues),
		"max":   stats.Max(metricValues),
		"min":   stats.Min(metricValues),
		"std":   stats.StdDev(metricValues),
		"count": len(validRows),
	}

	// Condition columns that exist and carry at least one value.
	var activeCols []string
	for _, col := range conditionCols {
		if !table.HasColumn(col) {
			continue
		}
		for _, row := range validRows {
			if v, present := row[col]; present && v != nil && v != "" {
				activeCols = append(activeCols, col)
				break
			}
		}
	}
	if len(activeCols) == 0 {
		return map[string]any{
			"top_conditions": []map[string]any{},
			"overall_best":   nil,
			"metric_stats":   metricStats,
			"note":           "No condition columns with data",
		}
	}

	// Group rows by the combination of active condition values.
	type group struct {
		key    string
		values map[string]any
		metric []float64
	}
	groups := make(map[string]*group)
	var order []string
	for i, row := range validRows {
		var keyParts []string
		values := make(map[string]any, len(activeCols))
		for _, col := range activeCols {
			keyParts = append(keyParts, fmt.Sprintf("%v", row[col]))
			values[col] = row[col]
		}
		key := strings.Join(keyParts, "\x1f")
		g, exists := groups[key]
		if !exists {
			g = &group{key: key, values: values}
			groups[key] = g
			order = append(order, key)
		}
		g.metric = append(g.metric, metricValues[i])
	}

	type scored struct {
		g     *group
		score float64
	}
	ranked := make([]scored, 0, len(order))
	for _, key := range order {
		g := groups[key]
		var score float64
		switch method {
		case "max":
			score = stats.Max(g.metric)
		case "median":
			score = stats.Median(g.metric)
		default:
			score = stats.Mean(g.metric)
		}
		ranked = append(ranked, scored{g: g, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if topN > len(ranked) {
		topN = len(ranked)
	}
	metricKey := metricCol + "_" + method
	topConditions := make([]map[string]any, 0, topN)
	for _, s := range ranked[:topN] {
		condition := make(map[string]any, len(s.g.values)+2)
		for col, v := range s.g.values {
			condition[col] = v
		}
		condition[metricKey] = s.score
		condition["sample_count"] = len(s.g.metric)
		topConditions = append(topConditions, condition)
	}

	var overallBest any
	if len(topConditions) > 0 {
		overallBest = topConditions[0]
	}

	return map[string]any{
		"top_conditions":    topConditions,
		"overall_best":      overallBest,
		"metric_stats":      metricStats,
		"method":            method,
		"condition_columns": activeCols,
	}
}
