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
	"fmt"
	"strings"
)

// Service is the unified entry point for enrichment analysis across the
// supported backends.
//
// Thread Safety: Safe for concurrent use once constructed.
type Service struct {
	kegg     *KEGGClient
	reactome *ReactomeClient
	local    *LocalDB
}

// NewService creates a service backed by the public KEGG and Reactome
// APIs, with no local database.
func NewService() *Service {
	return &Service{
		kegg:     NewKEGGClient(),
		reactome: NewReactomeClient(),
	}
}

// NewServiceWithBackends creates a service with explicit backends. Any
// backend may be nil; requests routed to a nil backend fail with an error
// report. Used for tests and offline deployments.
func NewServiceWithBackends(kegg *KEGGClient, reactome *ReactomeClient, local *LocalDB) *Service {
	return &Service{kegg: kegg, reactome: reactome, local: local}
}

// Enrich dispatches an enrichment request to the named database.
//
// Inputs:
//   - database: "kegg", "reactome", or "local".
//   - organism: KEGG organism code or common name for KEGG; species name
//     for Reactome. Ignored for the local database.
func (s *Service) Enrich(ctx context.Context, geneList []string, database, organism string, pvalueThreshold float64) *Report {
	switch strings.ToLower(database) {
	case "", "kegg":
		if s.kegg == nil {
			return &Report{InputGenes: len(geneList), Error: "KEGG backend not configured"}
		}
		code := organism
		if mapped, ok := OrganismCodes[strings.ToLower(organism)]; ok {
			code = mapped
		}
		if code == "" {
			code = "hsa"
		}
		return s.kegg.Enrich(ctx, geneList, code, pvalueThreshold)

	case "reactome":
		if s.reactome == nil {
			return &Report{InputGenes: len(geneList), Error: "Reactome backend not configured"}
		}
		species := organism
		if species == "" || species == "hsa" {
			species = "Homo sapiens"
		}
		return s.reactome.Enrich(ctx, geneList, species, pvalueThreshold)

	case "local":
		if s.local == nil {
			return &Report{InputGenes: len(geneList), Error: "Local pathway database not configured"}
		}
		return s.local.Enrich(geneList, pvalueThreshold)

	default:
		return &Report{
			Error: fmt.Sprintf("Unknown database: %s. Use 'kegg' or 'reactome'.", database),
		}
	}
}
