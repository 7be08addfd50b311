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

	"github.com/AleutianAI/BioTrace/services/agent/stats"
)

// correlationMinSamples is the minimum number of paired observations
// required before a coefficient is reported.
const correlationMinSamples = 3

// CorrelationTool computes Pearson or Spearman correlation between two
// numeric columns of the working table.
type CorrelationTool struct{}

func (t *CorrelationTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "compute_correlation",
		Description: "Compute Pearson or Spearman correlation between two columns in the data. " +
			"Returns correlation coefficient, p-value, and significance.",
		Params: map[string]ParamDef{
			"x_col": {
				Type:        ParamTypeString,
				Description: "Name of the first column (x-axis)",
			},
			"y_col": {
				Type:        ParamTypeString,
				Description: "Name of the second column (y-axis)",
			},
			"method": {
				Type:        ParamTypeString,
				Enum:        []string{"pearson", "spearman"},
				Description: "Correlation method (default: pearson)",
			},
		},
		Required: []string{"x_col", "y_col"},
	}
}

func (t *CorrelationTool) Execute(_ context.Context, args map[string]any, state *State) map[string]any {
	table := state.Table()
	if table.Empty() {
		return errorResult(msgNoDataLoaded)
	}

	xCol, ok := parseStringParam(args, "x_col")
	if !ok {
		return missingParam("x_col")
	}
	yCol, ok := parseStringParam(args, "y_col")
	if !ok {
		return missingParam("y_col")
	}
	method, _ := parseStringParam(args, "method")
	if method == "" {
		method = "pearson"
	}

	xs, ys := table.NumericPaired(xCol, yCol)
	n := len(xs)
	if n < correlationMinSamples {
		return map[string]any{
			"correlation": nil,
			"p_value":     nil,
			"n_samples":   n,
			"method":      method,
			"significant": false,
			"error":       fmt.Sprintf("Insufficient samples: %d < %d", n, correlationMinSamples),
		}
	}

	var r, p float64
	var err error
	switch method {
	case "spearman":
		r, p, err = stats.Spearman(xs, ys)
	default:
		r, p, err = stats.Pearson(xs, ys)
	}
	if err != nil {
		return errorResult(err.Error())
	}

	result := map[string]any{
		"correlation": nil,
		"p_value":     nil,
		"n_samples":   n,
		"method":      method,
		"significant": false,
	}
	if !math.IsNaN(r) {
		result["correlation"] = r
	}
	if !math.IsNaN(p) {
		result["p_value"] = p
		result["significant"] = p < 0.05
	}
	return result
}
