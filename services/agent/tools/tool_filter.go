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

	"github.com/AleutianAI/BioTrace/services/agent/kg"
)

const filterSampleRows = 5

// FilterTool narrows the working table to rows satisfying a threshold
// condition. The filtered table replaces the working table, so later
// tools in the same turn see the narrowed data.
type FilterTool struct{}

func (t *FilterTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "filter_by_threshold",
		Description: "Filter the current data by a threshold condition.",
		Params: map[string]ParamDef{
			"col": {
				Type:        ParamTypeString,
				Description: "Column to apply the condition to",
			},
			"op": {
				Type:        ParamTypeString,
				Enum:        []string{">", ">=", "<", "<=", "==", "!="},
				Description: "Comparison operator",
			},
			"value": {
				Type:        ParamTypeNumber,
				Description: "Threshold value",
			},
		},
		Required: []string{"col", "op", "value"},
	}
}

func (t *FilterTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
	table := state.Table()
	if table.Empty() {
		return errorResult(msgNoDataLoaded)
	}

	col, ok := parseStringParam(args, "col")
	if !ok {
		return missingParam("col")
	}
	op, ok := parseStringParam(args, "op")
	if !ok {
		return missingParam("op")
	}
	if !validFilterOp(op) {
		// Reject before filtering so the working table keeps its rows.
		return errorResultf("Unknown operator: %s", op)
	}
	if !table.HasColumn(col) {
		return errorResultf("Column '%s' not found", col)
	}

	threshold, numericThreshold := parseFloatParam(args, "value")
	var stringThreshold string
	if !numericThreshold {
		if stringThreshold, ok = parseStringParam(args, "value"); !ok {
			return missingParam("value")
		}
	}

	var kept []kg.Row
	for _, row := range table.Rows {
		var pass bool
		if numericThreshold {
			v, okNum := toFloat(row[col])
			if !okNum {
				// Non-numeric cells never satisfy a numeric comparison.
				continue
			}
			pass = compareFloat(v, op, threshold)
		} else {
			pass = compareString(fmt.Sprintf("%v", row[col]), op, stringThreshold)
		}
		if pass {
			kept = append(kept, row)
		}
	}

	filtered := &Table{Columns: table.Columns, Rows: kept}
	state.SetTable(filtered)

	return map[string]any{
		"remaining_rows": len(kept),
		"sample_rows":    filtered.SampleRows(filterSampleRows),
	}
}

func validFilterOp(op string) bool {
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
		return true
	}
	return false
}

func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

func compareString(v, op, threshold string) bool {
	switch op {
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	default:
		return false
	}
}
