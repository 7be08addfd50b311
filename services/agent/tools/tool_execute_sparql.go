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
	"strings"

	"github.com/AleutianAI/BioTrace/services/agent/kg"
)

// sparqlSampleRows is how many leading rows are echoed back to the model
// after a query.
const sparqlSampleRows = 10

// ExecuteSPARQLTool fetches data from the knowledge graph into the
// working table. Every analysis workflow starts here.
type ExecuteSPARQLTool struct{}

func (t *ExecuteSPARQLTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "execute_sparql",
		Description: "Execute a SPARQL query on the bioprocess RDF graph and return results as a table. " +
			"Use template names for common queries or provide raw SPARQL. " +
			"Available templates: " + strings.Join(kg.ListTemplates(), ", "),
		Params: map[string]ParamDef{
			"template_name": {
				Type:        ParamTypeString,
				Description: "Name of a predefined SPARQL template to use",
			},
			"raw_query": {
				Type:        ParamTypeString,
				Description: "Raw SPARQL query (used if template_name not provided)",
			},
			"filter_clause": {
				Type:        ParamTypeString,
				Description: "Optional FILTER clause to add to template queries",
			},
		},
	}
}

func (t *ExecuteSPARQLTool) Execute(ctx context.Context, args map[string]any, state *State) map[string]any {
	templateName, hasTemplate := parseStringParam(args, "template_name")
	rawQuery, hasRaw := parseStringParam(args, "raw_query")
	filterClause, _ := parseStringParam(args, "filter_clause")

	var query string
	switch {
	case hasTemplate:
		formatted, err := kg.FormatTemplate(templateName, filterClause)
		if err != nil {
			return errorResult(err.Error())
		}
		query = formatted
	case hasRaw:
		query = kg.EnsurePrefixes(rawQuery)
	default:
		return errorResult("Provide either template_name or raw_query")
	}

	querier := state.Querier()
	if querier == nil {
		return errorResult("SPARQL endpoint not configured")
	}

	columns, rows, err := querier.Query(ctx, query)
	if err != nil {
		return errorResult(err.Error())
	}

	table := &Table{Columns: columns, Rows: rows}
	state.SetTable(table)

	return map[string]any{
		"row_count":   len(rows),
		"columns":     columns,
		"sample_rows": table.SampleRows(sparqlSampleRows),
	}
}
