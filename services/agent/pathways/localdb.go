// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pathways

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// LocalDB is a pre-downloaded pathway database for offline enrichment.
//
// File format:
//
//	{
//	  "organism": "hsa",
//	  "pathways": {
//	    "hsa00010": {"name": "Glycolysis / Gluconeogenesis", "genes": ["HK1", "HK2"]}
//	  }
//	}
//
// Thread Safety: Immutable after load; safe for concurrent use.
type LocalDB struct {
	Organism string                 `json:"organism"`
	Pathways map[string]LocalDBPath `json:"pathways"`
}

// LocalDBPath is one pathway entry in a local database file.
type LocalDBPath struct {
	Name  string   `json:"name"`
	Genes []string `json:"genes"`
}

// LoadLocalDB reads a pathway database from a JSON file.
func LoadLocalDB(path string) (*LocalDB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pathways: failed to read database %s: %w", path, err)
	}
	var db LocalDB
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("pathways: failed to parse database %s: %w", path, err)
	}
	return &db, nil
}

// Universe returns all genes across all pathways, uppercased.
func (db *LocalDB) Universe() map[string]struct{} {
	universe := make(map[string]struct{})
	for _, pw := range db.Pathways {
		for _, g := range pw.Genes {
			universe[strings.ToUpper(g)] = struct{}{}
		}
	}
	return universe
}

// Enrich runs overrepresentation analysis for a gene list against every
// pathway in the database, retaining pathways with p below the threshold.
func (db *LocalDB) Enrich(geneList []string, pvalueThreshold float64) *Report {
	if len(db.Pathways) == 0 {
		return &Report{Error: "No pathways in database"}
	}
	if pvalueThreshold <= 0 {
		pvalueThreshold = DefaultPValueThreshold
	}

	background := db.Universe()
	query := geneSet(geneList)

	// Stable iteration for deterministic ordering at equal p-values.
	ids := make([]string, 0, len(db.Pathways))
	for id := range db.Pathways {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var retained []EnrichedPathway
	for _, id := range ids {
		pw := db.Pathways[id]
		scored, ok := scorePathway(query, geneSet(pw.Genes), background, id)
		if !ok {
			continue
		}
		scored.PathwayName = pw.Name
		if scored.PathwayName == "" {
			scored.PathwayName = id
		}
		if scored.PValue < pvalueThreshold {
			retained = append(retained, scored)
		}
	}

	return &Report{
		EnrichedPathways: finalizeEnrichment(retained),
		InputGenes:       len(geneList),
		Organism:         db.Organism,
	}
}
