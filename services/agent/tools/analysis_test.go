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
	"math"
	"testing"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
)

func TestFoldChangePositive(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"group", "value"}, []kg.Row{
		{"group": "A", "value": 10.0},
		{"group": "A", "value": 12.0},
		{"group": "A", "value": 11.0},
		{"group": "B", "value": 5.0},
		{"group": "B", "value": 6.0},
		{"group": "B", "value": 4.0},
	})

	result := e.Execute(context.Background(), "compute_fold_change", map[string]any{
		"group_col": "group", "value_col": "value", "group1": "A", "group2": "B",
	})
	if result["error"] != nil {
		t.Fatalf("error = %v", result["error"])
	}

	fc, ok := result["fold_change"].(float64)
	if !ok || fc <= 0 {
		t.Errorf("fold_change = %v, want positive", result["fold_change"])
	}
	if m1 := result["mean_group1"].(float64); math.Abs(m1-11) > 1e-9 {
		t.Errorf("mean_group1 = %v, want 11", m1)
	}
	if m2 := result["mean_group2"].(float64); math.Abs(m2-5) > 1e-9 {
		t.Errorf("mean_group2 = %v, want 5", m2)
	}
	if result["n_group1"] != 3 || result["n_group2"] != 3 {
		t.Errorf("group sizes = %v/%v, want 3/3", result["n_group1"], result["n_group2"])
	}
	if _, ok := result["p_value"].(float64); !ok {
		t.Error("p_value missing with n >= 2 in both groups")
	}
}

func TestFoldChangeNegative(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"group", "value"}, []kg.Row{
		{"group": "A", "value": 5.0},
		{"group": "A", "value": 5.0},
		{"group": "B", "value": 20.0},
		{"group": "B", "value": 20.0},
	})

	result := e.Execute(context.Background(), "compute_fold_change", map[string]any{
		"group_col": "group", "value_col": "value", "group1": "A", "group2": "B",
	})
	fc, ok := result["fold_change"].(float64)
	if !ok || fc >= 0 {
		t.Errorf("fold_change = %v, want negative", result["fold_change"])
	}
}

func TestFoldChangeCaseInsensitiveSubstring(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"group", "value"}, []kg.Row{
		{"group": "http://example.org/mcbo#FedBatchCultureProcess", "value": 10.0},
		{"group": "http://example.org/mcbo#PerfusionCultureProcess", "value": 5.0},
	})

	result := e.Execute(context.Background(), "compute_fold_change", map[string]any{
		"group_col": "group", "value_col": "value",
		"group1": "fedbatch", "group2": "perfusion",
	})
	if result["n_group1"] != 1 || result["n_group2"] != 1 {
		t.Errorf("substring matching failed: %v/%v", result["n_group1"], result["n_group2"])
	}
}

func TestFoldChangeEmptyGroup(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"group", "value"}, []kg.Row{
		{"group": "A", "value": 10.0},
	})

	result := e.Execute(context.Background(), "compute_fold_change", map[string]any{
		"group_col": "group", "value_col": "value", "group1": "A", "group2": "B",
	})
	if result["error"] != "Empty group(s): group1=1, group2=0" {
		t.Errorf("error = %v", result["error"])
	}
	if result["fold_change"] != nil {
		t.Errorf("fold_change = %v, want nil", result["fold_change"])
	}
}

func TestCorrelationInsufficientSamples(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"x", "y"}, []kg.Row{
		{"x": 1.0, "y": 2.0},
		{"x": 2.0, "y": 4.0},
	})

	result := e.Execute(context.Background(), "compute_correlation", map[string]any{
		"x_col": "x", "y_col": "y",
	})
	if result["error"] != "Insufficient samples: 2 < 3" {
		t.Errorf("error = %v", result["error"])
	}
	if result["correlation"] != nil || result["significant"] != false {
		t.Errorf("correlation = %v, significant = %v", result["correlation"], result["significant"])
	}
	if result["n_samples"] != 2 {
		t.Errorf("n_samples = %v", result["n_samples"])
	}
}

func TestCorrelationStringCells(t *testing.T) {
	// SPARQL engines often return numbers as strings; pairing must survive.
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"x", "y"}, []kg.Row{
		{"x": "1", "y": "10"},
		{"x": "2", "y": "8"},
		{"x": "3", "y": "6"},
		{"x": "4", "y": "4"},
		{"x": "not-a-number", "y": "1"},
	})

	result := e.Execute(context.Background(), "compute_correlation", map[string]any{
		"x_col": "x", "y_col": "y", "method": "spearman",
	})
	if result["error"] != nil {
		t.Fatalf("error = %v", result["error"])
	}
	if result["n_samples"] != 4 {
		t.Errorf("n_samples = %v, want 4 (bad cell dropped)", result["n_samples"])
	}
	if r := result["correlation"].(float64); r > -0.999 {
		t.Errorf("correlation = %v, want -1", r)
	}
}

func TestPeakConditionsMeanAndMax(t *testing.T) {
	rows := []kg.Row{
		{"cond": "A", "metric": 10.0},
		{"cond": "A", "metric": 20.0},
		{"cond": "A", "metric": 15.0},
		{"cond": "B", "metric": 5.0},
		{"cond": "B", "metric": 100.0},
	}

	for _, method := range []string{"mean", "max"} {
		e := newTestExecutor(t, kg.NewMemoryQuerier())
		loadTable(e, []string{"cond", "metric"}, rows)

		result := e.Execute(context.Background(), "find_peak_conditions", map[string]any{
			"condition_cols": []any{"cond"},
			"metric_col":     "metric",
			"method":         method,
		})
		if result["error"] != nil {
			t.Fatalf("%s: error = %v", method, result["error"])
		}
		best := result["overall_best"].(map[string]any)
		if best["cond"] != "B" {
			t.Errorf("%s: best condition = %v, want B", method, best["cond"])
		}
		if _, ok := best["metric_"+method]; !ok {
			t.Errorf("%s: aggregate key metric_%s missing", method, method)
		}
		if best["sample_count"] != 2 {
			t.Errorf("%s: sample_count = %v, want 2", method, best["sample_count"])
		}
	}
}

func TestPeakConditionsNoConditionColumns(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"metric"}, []kg.Row{
		{"metric": 1.0},
		{"metric": 2.0},
	})

	result := e.Execute(context.Background(), "find_peak_conditions", map[string]any{
		"condition_cols": []any{"temperature", "pH"},
		"metric_col":     "metric",
	})
	if result["note"] != "No condition columns with data" {
		t.Errorf("note = %v", result["note"])
	}
	statsMap := result["metric_stats"].(map[string]any)
	if statsMap["count"] != 2 {
		t.Errorf("count = %v", statsMap["count"])
	}
}

func TestPeakConditionsSingleRowStdZero(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"cond", "metric"}, []kg.Row{
		{"cond": "A", "metric": 3.0},
	})

	result := e.Execute(context.Background(), "find_peak_conditions", map[string]any{
		"condition_cols": []any{"cond"},
		"metric_col":     "metric",
	})
	statsMap := result["metric_stats"].(map[string]any)
	if statsMap["std"] != 0.0 {
		t.Errorf("std = %v, want 0 for single row", statsMap["std"])
	}
}

func TestFilterByThreshold(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"viability"}, []kg.Row{
		{"viability": 95.0},
		{"viability": 85.0},
		{"viability": "91"},
		{"viability": "n/a"},
	})

	result := e.Execute(context.Background(), "filter_by_threshold", map[string]any{
		"col": "viability", "op": ">", "value": 90.0,
	})
	if result["remaining_rows"] != 2 {
		t.Fatalf("remaining_rows = %v, want 2", result["remaining_rows"])
	}
	// The filter replaces the working table.
	if got := len(e.State().Table().Rows); got != 2 {
		t.Errorf("working table rows = %d, want 2", got)
	}
}

func TestFilterUnknownOperator(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"viability"}, []kg.Row{
		{"viability": 95.0},
		{"viability": 85.0},
		{"viability": 91.0},
	})

	result := e.Execute(context.Background(), "filter_by_threshold", map[string]any{
		"col": "viability", "op": "~", "value": 90.0,
	})
	if result["error"] != "Unknown operator: ~" {
		t.Fatalf("error = %v, want Unknown operator: ~", result["error"])
	}
	// A rejected filter must leave the working table intact.
	if got := len(e.State().Table().Rows); got != 3 {
		t.Errorf("working table rows = %d, want 3", got)
	}
}

func TestFilterUnknownColumn(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"a"}, []kg.Row{{"a": 1.0}})

	result := e.Execute(context.Background(), "filter_by_threshold", map[string]any{
		"col": "missing", "op": ">", "value": 0.0,
	})
	if result["error"] != "Column 'missing' not found" {
		t.Errorf("error = %v", result["error"])
	}
}

func deFixtureRows() []kg.Row {
	rows := []kg.Row{}
	// GENE1 strongly up in Fed-batch, GENE2 flat.
	for _, v := range []float64{100, 110, 105} {
		rows = append(rows, kg.Row{"gene": "GENE1", "processType": "FedBatchCultureProcess", "expressionValue": v, "cellLineLabel": "HEK293-A"})
	}
	for _, v := range []float64{10, 12, 11} {
		rows = append(rows, kg.Row{"gene": "GENE1", "processType": "PerfusionCultureProcess", "expressionValue": v, "cellLineLabel": "HEK293-A"})
	}
	for _, v := range []float64{50, 52, 51} {
		rows = append(rows, kg.Row{"gene": "GENE2", "processType": "FedBatchCultureProcess", "expressionValue": v, "cellLineLabel": "HEK293-A"})
	}
	for _, v := range []float64{49, 51, 50} {
		rows = append(rows, kg.Row{"gene": "GENE2", "processType": "PerfusionCultureProcess", "expressionValue": v, "cellLineLabel": "HEK293-A"})
	}
	return rows
}

func TestDifferentialExpression(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"gene", "processType", "expressionValue", "cellLineLabel"}, deFixtureRows())

	result := e.Execute(context.Background(), "differential_expression", map[string]any{
		"group_col": "processType",
		"group1":    "FedBatch",
		"group2":    "Perfusion",
	})
	if result["error"] != nil {
		t.Fatalf("error = %v", result["error"])
	}
	if result["total_genes"] != 2 {
		t.Errorf("total_genes = %v, want 2", result["total_genes"])
	}
	if result["significant_genes"] != 1 || result["upregulated"] != 1 || result["downregulated"] != 0 {
		t.Errorf("sig=%v up=%v down=%v, want 1/1/0",
			result["significant_genes"], result["upregulated"], result["downregulated"])
	}

	// Significant genes sort first.
	top := result["top_genes"].([]DEGene)
	if top[0].Gene != "GENE1" || !top[0].Significant {
		t.Errorf("top gene = %+v, want significant GENE1", top[0])
	}
	if top[0].Direction == nil || *top[0].Direction != "up" {
		t.Errorf("direction = %v, want up", top[0].Direction)
	}
}

func TestDifferentialExpressionCellLineFilter(t *testing.T) {
	rows := deFixtureRows()
	// A CHO-only gene must disappear when filtering to HEK293.
	rows = append(rows,
		kg.Row{"gene": "GENE3", "processType": "FedBatchCultureProcess", "expressionValue": 500.0, "cellLineLabel": "CHO-K1"},
		kg.Row{"gene": "GENE3", "processType": "PerfusionCultureProcess", "expressionValue": 1.0, "cellLineLabel": "CHO-K1"},
	)

	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"gene", "processType", "expressionValue", "cellLineLabel"}, rows)

	result := e.Execute(context.Background(), "differential_expression", map[string]any{
		"group_col": "processType",
		"group1":    "FedBatch",
		"group2":    "Perfusion",
		"cell_line": "hek293",
	})
	if result["total_genes"] != 2 {
		t.Errorf("total_genes = %v, want 2 after cell line filter", result["total_genes"])
	}
}

func TestSignificantGenes(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())

	result := e.Execute(context.Background(), "get_significant_genes", map[string]any{})
	if result["error"] != msgNoDEResults {
		t.Fatalf("error = %v", result["error"])
	}

	loadTable(e, []string{"gene", "processType", "expressionValue", "cellLineLabel"}, deFixtureRows())
	e.Execute(context.Background(), "differential_expression", map[string]any{
		"group_col": "processType", "group1": "FedBatch", "group2": "Perfusion",
	})

	result = e.Execute(context.Background(), "get_significant_genes", map[string]any{"direction": "up"})
	if result["gene_count"] != 1 {
		t.Fatalf("gene_count = %v, want 1", result["gene_count"])
	}
	genes := result["genes"].([]string)
	if genes[0] != "GENE1" {
		t.Errorf("genes = %v", genes)
	}

	result = e.Execute(context.Background(), "get_significant_genes", map[string]any{"direction": "down"})
	if result["gene_count"] != 0 {
		t.Errorf("down gene_count = %v, want 0", result["gene_count"])
	}
}

func TestSummarizeByGroup(t *testing.T) {
	e := newTestExecutor(t, kg.NewMemoryQuerier())
	loadTable(e, []string{"cellLine", "titer"}, []kg.Row{
		{"cellLine": "CHO-K1", "titer": 2.0},
		{"cellLine": "CHO-K1", "titer": 4.0},
		{"cellLine": "HEK293", "titer": 1.0},
	})

	result := e.Execute(context.Background(), "summarize_by_group", map[string]any{
		"group_col": "cellLine", "value_col": "titer",
	})
	if result["groups"] != 2 {
		t.Fatalf("groups = %v, want 2", result["groups"])
	}
	summary := result["summary"].([]map[string]any)
	if summary[0]["cellLine"] != "CHO-K1" || summary[0]["mean"] != 3.0 || summary[0]["count"] != 2 {
		t.Errorf("summary[0] = %v", summary[0])
	}
}
