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
	"strconv"
	"sync"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
	"github.com/AleutianAI/BioTrace/services/agent/pathways"
)

// Table is the working data set produced by a query and consumed by the
// analysis tools.
type Table struct {
	Columns []string
	Rows    []kg.Row
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// SampleRows returns up to n leading rows.
func (t *Table) SampleRows(n int) []kg.Row {
	if t == nil {
		return nil
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	sample := make([]kg.Row, n)
	copy(sample, t.Rows[:n])
	return sample
}

// HasColumn reports whether the column name appears in the header.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// NumericPaired extracts rows where both columns parse as numbers,
// keeping the pairing intact.
func (t *Table) NumericPaired(xCol, yCol string) (xs, ys []float64) {
	if t == nil {
		return nil, nil
	}
	for _, row := range t.Rows {
		x, okX := toFloat(row[xCol])
		y, okY := toFloat(row[yCol])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// toFloat coerces a cell value to float64. String cells are parsed; nil
// and unparseable cells report false.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// DEGene is one row of a differential expression result. Nullable fields
// use pointers so missing statistics serialize as JSON null.
type DEGene struct {
	Gene           string   `json:"gene"`
	Log2FoldChange *float64 `json:"log2FoldChange"`
	MeanGroup1     *float64 `json:"mean_group1"`
	MeanGroup2     *float64 `json:"mean_group2"`
	NGroup1        int      `json:"n_group1"`
	NGroup2        int      `json:"n_group2"`
	PValue         *float64 `json:"pvalue"`
	Significant    bool     `json:"significant"`
	Direction      *string  `json:"direction"`
}

// State is the per-session mutable context shared by the tools: the graph
// querier, the pathway service, the working table, and the most recent
// differential expression result.
//
// Thread Safety: Safe for concurrent use. The orchestration loop runs
// tools sequentially, but the HTTP surface may probe state from other
// goroutines.
type State struct {
	mu sync.Mutex

	querier  kg.Querier
	pathways *pathways.Service

	table     *Table
	deResults []DEGene
}

// NewState creates session state bound to a querier and pathway service.
func NewState(querier kg.Querier, pathwaySvc *pathways.Service) *State {
	return &State{querier: querier, pathways: pathwaySvc}
}

// Querier returns the knowledge graph querier.
func (s *State) Querier() kg.Querier { return s.querier }

// Pathways returns the pathway enrichment service, which may be nil.
func (s *State) Pathways() *pathways.Service { return s.pathways }

// Table returns the current working table, or nil before the first query.
func (s *State) Table() *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// SetTable replaces the working table.
func (s *State) SetTable(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

// DEResults returns the most recent differential expression result, or
// nil if none has been computed.
func (s *State) DEResults() []DEGene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deResults
}

// SetDEResults stores a differential expression result.
func (s *State) SetDEResults(genes []DEGene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deResults = genes
}
