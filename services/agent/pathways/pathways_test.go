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
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalDBEnrich(t *testing.T) {
	db := &LocalDB{
		Organism: "hsa",
		Pathways: map[string]LocalDBPath{
			"hsa00010": {
				Name:  "Glycolysis / Gluconeogenesis",
				Genes: []string{"HK1", "HK2", "GCK", "PFKL", "ALDOA"},
			},
			"hsa00020": {
				Name:  "Citrate cycle",
				Genes: []string{"CS", "ACO2", "IDH1", "OGDH", "SDHA", "FH", "MDH2"},
			},
		},
	}

	report := db.Enrich([]string{"hk1", "HK2", "GCK"}, 0.05)
	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if len(report.EnrichedPathways) != 1 {
		t.Fatalf("enriched = %d, want 1", len(report.EnrichedPathways))
	}

	pw := report.EnrichedPathways[0]
	if pw.PathwayID != "hsa00010" {
		t.Errorf("pathway = %s, want hsa00010", pw.PathwayID)
	}
	if pw.OverlapCount != 3 {
		t.Errorf("overlap = %d, want 3 (case-insensitive match)", pw.OverlapCount)
	}
	// One retained pathway: the adjusted p-value equals the raw one.
	if math.Abs(pw.PAdjusted-math.Min(1.0, pw.PValue)) > 1e-12 {
		t.Errorf("p_adjusted = %v, want min(1, p_value=%v)", pw.PAdjusted, pw.PValue)
	}
}

func TestLocalDBEnrichEmptyDatabase(t *testing.T) {
	db := &LocalDB{}
	report := db.Enrich([]string{"HK1"}, 0.05)
	if report.Error != "No pathways in database" {
		t.Errorf("error = %q", report.Error)
	}
}

func TestLoadLocalDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathways.json")
	content := `{"organism": "hsa", "pathways": {"hsa00010": {"name": "Glycolysis", "genes": ["HK1"]}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := LoadLocalDB(path)
	if err != nil {
		t.Fatalf("LoadLocalDB: %v", err)
	}
	if db.Organism != "hsa" || len(db.Pathways) != 1 {
		t.Errorf("unexpected db: %+v", db)
	}

	if _, err := LoadLocalDB(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestKEGGEnrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/link/hsa/pathway":
			w.Write([]byte("path:hsa00010\thsa:HK1\n" +
				"path:hsa00010\thsa:HK2\n" +
				"path:hsa00010\thsa:GCK\n" +
				"path:hsa00020\thsa:CS\n" +
				"path:hsa00020\thsa:ACO2\n" +
				"path:hsa00020\thsa:IDH1\n" +
				"path:hsa00020\thsa:OGDH\n" +
				"path:hsa00020\thsa:SDHA\n"))
		case "/list/pathway/hsa":
			w.Write([]byte("path:hsa00010\tGlycolysis / Gluconeogenesis\n" +
				"path:hsa00020\tCitrate cycle (TCA cycle)\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewKEGGClientWithConfig(server.URL)
	report := client.Enrich(context.Background(), []string{"HK1", "HK2", "GCK"}, "hsa", 0.05)
	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if report.TotalPathwaysTested != 2 {
		t.Errorf("tested = %d, want 2", report.TotalPathwaysTested)
	}
	if len(report.EnrichedPathways) != 1 {
		t.Fatalf("enriched = %d, want 1", len(report.EnrichedPathways))
	}
	pw := report.EnrichedPathways[0]
	if pw.PathwayID != "hsa00010" || pw.OverlapCount != 3 {
		t.Errorf("unexpected pathway: %+v", pw)
	}
	if pw.PathwayName != "Glycolysis / Gluconeogenesis" {
		t.Errorf("pathway name = %q", pw.PathwayName)
	}
}

func TestKEGGEnrichEmptyGeneList(t *testing.T) {
	client := NewKEGGClient()
	report := client.Enrich(context.Background(), nil, "hsa", 0.05)
	if report.Error != "Empty gene list provided" {
		t.Errorf("error = %q", report.Error)
	}
}

func TestReactomeEnrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != reactomeAnalysisPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"pathways": [
				{
					"stId": "R-HSA-70171",
					"name": "Glycolysis",
					"entities": {"pValue": 0.001, "fdr": 0.004, "found": 3, "total": 70},
					"species": {"name": "Homo sapiens"}
				},
				{
					"stId": "R-HSA-1430728",
					"name": "Metabolism",
					"entities": {"pValue": 0.2, "fdr": 0.3, "found": 3, "total": 2000},
					"species": {"name": "Homo sapiens"}
				}
			],
			"identifiersNotFound": 0
		}`))
	}))
	defer server.Close()

	client := NewReactomeClientWithConfig(server.URL)
	report := client.Enrich(context.Background(), []string{"HK1", "HK2", "GCK"}, "Homo sapiens", 0.05)
	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if len(report.EnrichedPathways) != 1 {
		t.Fatalf("enriched = %d, want 1 (threshold filters the second)", len(report.EnrichedPathways))
	}
	if report.EnrichedPathways[0].PathwayID != "R-HSA-70171" {
		t.Errorf("pathway = %s", report.EnrichedPathways[0].PathwayID)
	}
}

func TestServiceDispatch(t *testing.T) {
	db := &LocalDB{
		Organism: "hsa",
		Pathways: map[string]LocalDBPath{
			"p1": {Name: "P1", Genes: []string{"A", "B", "C"}},
			"p2": {Name: "P2", Genes: []string{"D", "E", "F", "G", "H"}},
		},
	}
	svc := NewServiceWithBackends(nil, nil, db)

	report := svc.Enrich(context.Background(), []string{"A", "B"}, "local", "", 0.5)
	if report.Error != "" {
		t.Fatalf("local dispatch failed: %s", report.Error)
	}

	report = svc.Enrich(context.Background(), []string{"A"}, "kegg", "human", 0.05)
	if report.Error != "KEGG backend not configured" {
		t.Errorf("error = %q", report.Error)
	}

	report = svc.Enrich(context.Background(), []string{"A"}, "biocyc", "", 0.05)
	if report.Error != "Unknown database: biocyc. Use 'kegg' or 'reactome'." {
		t.Errorf("error = %q", report.Error)
	}
}
