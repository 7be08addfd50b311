// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kg

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryQuerier is an in-memory Querier that returns canned result sets
// keyed by substrings of the query text. Useful for tests and offline runs.
//
// Thread Safety: Safe for concurrent use.
type MemoryQuerier struct {
	mu       sync.Mutex
	fixtures []memoryFixture
	fallback *memoryFixture
	queries  []string
}

type memoryFixture struct {
	match   string
	columns []string
	rows    []Row
}

// NewMemoryQuerier creates an empty in-memory querier. With no fixtures
// registered every query errors.
func NewMemoryQuerier() *MemoryQuerier {
	return &MemoryQuerier{}
}

// AddFixture registers a result set returned for any query containing the
// match substring. Fixtures are checked in registration order.
func (m *MemoryQuerier) AddFixture(match string, columns []string, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtures = append(m.fixtures, memoryFixture{match: match, columns: columns, rows: rows})
}

// SetDefault registers a result set returned when no fixture matches.
func (m *MemoryQuerier) SetDefault(columns []string, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &memoryFixture{columns: columns, rows: rows}
}

// Queries returns the query texts received so far, in order.
func (m *MemoryQuerier) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}

// Query implements Querier.
func (m *MemoryQuerier) Query(_ context.Context, query string) ([]string, []Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)

	for _, f := range m.fixtures {
		if f.match != "" && strings.Contains(query, f.match) {
			return f.columns, f.rows, nil
		}
	}
	if m.fallback != nil {
		return m.fallback.columns, m.fallback.rows, nil
	}
	return nil, nil, fmt.Errorf("kg: no fixture matches query")
}
