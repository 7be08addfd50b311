// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package kg provides access to the bioprocess knowledge graph: a library
// of parameterized SPARQL query templates and a Querier abstraction over
// graph endpoints.
//
// Templates fetch raw rows the analysis tools operate on; they never
// aggregate beyond what the question shape requires. Parameters are
// limited to a single {filter_clause} slot filled by FormatTemplate.
package kg

import (
	"fmt"
	"sort"
	"strings"
)

// Prefixes is the standard prefix block prepended to every templated query.
const Prefixes = `
PREFIX mcbo: <http://example.org/mcbo#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX ro: <http://purl.obolibrary.org/obo/RO_>
PREFIX bfo: <http://purl.obolibrary.org/obo/BFO_>
PREFIX uo: <http://purl.obolibrary.org/obo/>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
`

const filterPlaceholder = "{filter_clause}"

// Templates maps template names to parameterized SPARQL bodies. Each body
// may contain a single {filter_clause} placeholder.
var Templates = map[string]string{
	// Culture conditions and productivity data.
	"culture_conditions_productivity": `
SELECT ?runId ?cellLine ?cellLineLabel ?temperature ?pH ?dissolvedOxygen
       ?productivityValue ?productivityCategory ?processType
WHERE {
    ?process a ?processType .
    ?processType rdfs:subClassOf* mcbo:CellCultureProcess .
    BIND(REPLACE(STR(?process), ".*#", "") AS ?runId)

    ?process mcbo:usesCellLine ?cellLine .
    OPTIONAL { ?cellLine rdfs:label ?cellLineLabel }

    ?process ro:0000057 ?system .
    ?system a mcbo:CellCultureSystem .
    ?system ro:0000086 ?ccq .

    OPTIONAL { ?ccq mcbo:hasTemperature ?temperature }
    OPTIONAL { ?ccq mcbo:hasPH ?pH }
    OPTIONAL { ?ccq mcbo:hasDissolvedOxygen ?dissolvedOxygen }

    ?process mcbo:hasProductivityMeasurement ?pm .
    ?pm mcbo:hasProductivityValue ?productivityValue .
    OPTIONAL { ?pm mcbo:hasProductivityCategory ?productivityCategory }

    {filter_clause}
}
ORDER BY DESC(?productivityValue)
`,

	// Cell lines with overexpressed genes.
	"cell_lines_overexpression": `
SELECT ?cellLine ?cellLineLabel ?cellLineType ?gene ?geneLabel
       ?productivityValue ?productivityCategory
WHERE {
    ?cellLine a ?cellLineType .
    ?cellLineType rdfs:subClassOf* mcbo:CellLine .
    OPTIONAL { ?cellLine rdfs:label ?cellLineLabel }

    ?cellLine mcbo:overexpressesGene ?gene .
    OPTIONAL { ?gene rdfs:label ?geneLabel }

    OPTIONAL {
        ?process mcbo:usesCellLine ?cellLine ;
                 mcbo:hasProductivityMeasurement ?pm .
        ?pm mcbo:hasProductivityValue ?productivityValue .
        OPTIONAL { ?pm mcbo:hasProductivityCategory ?productivityCategory }
    }

    {filter_clause}
}
ORDER BY ?cellLine ?gene
`,

	// Nutrient concentrations with viability at a collection day.
	"nutrient_viability_by_day": `
SELECT ?cellLine ?cellLineLabel ?nutrientLabel ?concentrationValue ?concentrationUnit
       ?viableCellDensity ?collectionDay ?sampleId
WHERE {
    ?viability a mcbo:CellViabilityMeasurement ;
               mcbo:hasViableCellDensity ?viableCellDensity .

    ?sample mcbo:hasCellViabilityMeasurement ?viability ;
            mcbo:hasCollectionDay ?collectionDay .
    BIND(STR(?sample) AS ?sampleId)

    ?process mcbo:hasProcessOutput ?sample .
    OPTIONAL {
        ?process mcbo:usesCellLine ?cellLine .
        ?cellLine rdfs:label ?cellLineLabel .
    }

    ?process ro:0000057 ?system .
    ?system a mcbo:CellCultureSystem ;
            bfo:0000051 ?medium .

    ?medium mcbo:hasNutrientConcentration ?nutrient .
    ?nutrient mcbo:hasConcentrationValue ?concentrationValue ;
              mcbo:hasConcentrationUnit ?concentrationUnit .
    OPTIONAL { ?nutrient rdfs:label ?nutrientLabel }

    {filter_clause}
}
ORDER BY DESC(?viableCellDensity) ?cellLine
`,

	// Gene expression by clone.
	"gene_expression_by_clone": `
SELECT ?gene ?geneLabel ?clone ?cloneLabel ?parentLine ?parentLineLabel
       ?expressionValue ?sampleId
WHERE {
    ?clone a mcbo:Clone .
    ?clone rdfs:label ?cloneLabel .

    ?parentLine mcbo:hasClone ?clone .
    OPTIONAL { ?parentLine rdfs:label ?parentLineLabel }

    ?process mcbo:usesCellLine ?parentLine ;
             mcbo:hasProcessOutput ?sample .
    BIND(STR(?sample) AS ?sampleId)

    ?sample mcbo:hasGeneExpression ?exprMeas .
    ?exprMeas uo:IAO_0000136 ?gene ;
              mcbo:hasExpressionValue ?expressionValue .
    OPTIONAL { ?gene rdfs:label ?geneLabel }

    {filter_clause}
}
ORDER BY ?gene ?clone
`,

	// Gene expression by process type, for differential analysis.
	// Filter by cell line with: FILTER(CONTAINS(?cellLineLabel, "HEK293"))
	"gene_expression_by_process_type": `
SELECT ?gene ?geneLabel ?expressionValue ?processType ?cellLine ?cellLineLabel ?sampleId
WHERE {
    ?process a ?processType .
    ?processType rdfs:subClassOf* mcbo:CellCultureProcess .

    ?process mcbo:hasProcessOutput ?sample .
    BIND(STR(?sample) AS ?sampleId)

    ?process mcbo:usesCellLine ?cellLine .
    ?cellLine rdfs:label ?cellLineLabel .

    ?sample mcbo:hasGeneExpression ?expr .
    ?expr uo:IAO_0000136 ?gene ;
          mcbo:hasExpressionValue ?expressionValue .
    OPTIONAL { ?gene rdfs:label ?geneLabel }

    {filter_clause}
}
ORDER BY ?gene ?processType
`,

	// Gene expression with productivity in the stationary phase.
	"gene_expression_stationary_productivity": `
SELECT ?gene ?geneLabel ?expressionValue ?productivityValue ?productivityCategory
       ?cellLine ?cellLineLabel ?processType ?sampleId
WHERE {
    ?process a ?processType .
    ?processType rdfs:subClassOf* mcbo:CellCultureProcess .

    ?process mcbo:hasProductivityMeasurement ?prodMeas ;
             mcbo:hasProcessOutput ?sample .
    BIND(STR(?sample) AS ?sampleId)

    OPTIONAL { ?process mcbo:usesCellLine ?cellLine . ?cellLine rdfs:label ?cellLineLabel }

    ?prodMeas mcbo:hasProductivityValue ?productivityValue .
    OPTIONAL { ?prodMeas mcbo:hasProductivityCategory ?productivityCategory }

    ?sample a mcbo:BioprocessSample ;
            mcbo:inCulturePhase ?phase .
    ?phase a mcbo:StationaryPhase .

    ?sample mcbo:hasGeneExpression ?exprMeas .
    ?exprMeas uo:IAO_0000136 ?gene ;
              mcbo:hasExpressionValue ?expressionValue .
    OPTIONAL { ?gene rdfs:label ?geneLabel }

    {filter_clause}
}
ORDER BY DESC(?productivityValue) DESC(?expressionValue) ?gene
`,

	// Gene expression with viability percentage.
	"gene_expression_by_viability": `
SELECT ?gene ?geneLabel ?expressionValue ?viabilityPercentage ?sampleId ?cellLine
WHERE {
    ?sample a mcbo:BioprocessSample ;
            mcbo:hasCellViabilityMeasurement ?viability .
    BIND(STR(?sample) AS ?sampleId)

    ?viability a mcbo:CellViabilityMeasurement ;
               mcbo:hasViabilityPercentage ?viabilityPercentage .

    ?sample mcbo:hasGeneExpression ?exprMeas .
    ?exprMeas uo:IAO_0000136 ?gene ;
              mcbo:hasExpressionValue ?expressionValue .
    OPTIONAL { ?gene rdfs:label ?geneLabel }

    OPTIONAL {
        ?process mcbo:hasProcessOutput ?sample ;
                 mcbo:usesCellLine ?cellLine .
    }

    {filter_clause}
}
ORDER BY DESC(?viabilityPercentage) ?gene
`,

	// Cell lines and clones with product quality measurements.
	"cell_lines_product_quality": `
SELECT ?cellLine ?cellLineLabel ?clone ?cloneLabel ?product ?productLabel
       ?qualityMeas ?qualityLabel ?titerValue ?processType
WHERE {
    ?process a ?processType .
    ?processType rdfs:subClassOf* mcbo:CellCultureProcess .

    ?process mcbo:usesCellLine ?cellLine .
    OPTIONAL { ?cellLine rdfs:label ?cellLineLabel }

    OPTIONAL {
        ?cellLine mcbo:hasClone ?clone .
        ?clone rdfs:label ?cloneLabel .
    }

    ?process mcbo:hasProduct ?product .
    OPTIONAL { ?product rdfs:label ?productLabel }
    OPTIONAL { ?product mcbo:hasTiterValue ?titerValue }

    ?product mcbo:hasQualityMeasurement ?qualityMeas .
    OPTIONAL { ?qualityMeas rdfs:label ?qualityLabel }

    {filter_clause}
}
ORDER BY DESC(?titerValue) ?cellLine
`,

	// Utility: all genes in the graph.
	"all_genes": `
SELECT ?gene ?geneLabel
WHERE {
    ?gene a mcbo:Gene .
    OPTIONAL { ?gene rdfs:label ?geneLabel }
}
ORDER BY ?geneLabel
`,

	// Utility: all cell lines in the graph.
	"all_cell_lines": `
SELECT ?cellLine ?cellLineLabel ?cellLineType
WHERE {
    ?cellLine a ?cellLineType .
    ?cellLineType rdfs:subClassOf* mcbo:CellLine .
    OPTIONAL { ?cellLine rdfs:label ?cellLineLabel }
}
ORDER BY ?cellLineLabel
`,

	// Utility: process type counts.
	"process_type_summary": `
SELECT ?processType (COUNT(?process) AS ?count)
WHERE {
    ?process a ?processType .
    ?processType rdfs:subClassOf* mcbo:CellCultureProcess .
}
GROUP BY ?processType
ORDER BY DESC(?count)
`,
}

// CQTemplates maps competency question identifiers to the template each
// one is answered from.
var CQTemplates = map[string]string{
	"CQ1": "culture_conditions_productivity",
	"CQ2": "cell_lines_overexpression",
	"CQ3": "nutrient_viability_by_day",
	"CQ4": "gene_expression_by_clone",
	"CQ5": "gene_expression_by_process_type",
	"CQ6": "gene_expression_stationary_productivity",
	"CQ7": "gene_expression_by_viability",
	"CQ8": "cell_lines_product_quality",
}

// GetTemplate returns a template by name with the prefix block prepended.
//
// Outputs:
//   - string: The query text ready for filter substitution.
//   - error: Non-nil when the name is unknown; the message lists what is
//     available.
func GetTemplate(name string) (string, error) {
	body, ok := Templates[name]
	if !ok {
		return "", fmt.Errorf("Unknown template %q. Available: %s", name, strings.Join(ListTemplates(), ", "))
	}
	return Prefixes + body, nil
}

// FormatTemplate fills a template's filter slot and returns an executable
// query.
//
// Description:
//
//	A non-empty filterClause that does not already start with the FILTER
//	keyword is wrapped as FILTER(...). An empty clause removes the slot.
//
// Inputs:
//   - name: Template name.
//   - filterClause: Optional filter expression, with or without the
//     FILTER keyword.
//
// Outputs:
//   - string: The formatted SPARQL query.
//   - error: Non-nil when the template name is unknown.
func FormatTemplate(name, filterClause string) (string, error) {
	tmpl, err := GetTemplate(name)
	if err != nil {
		return "", err
	}
	clause := strings.TrimSpace(filterClause)
	if clause != "" && !strings.HasPrefix(strings.ToUpper(clause), "FILTER") {
		clause = "FILTER(" + clause + ")"
	}
	return strings.ReplaceAll(tmpl, filterPlaceholder, clause), nil
}

// EnsurePrefixes prepends the standard prefix block to a raw query that
// does not open with its own PREFIX declarations. The check looks only
// at the start of the query, so a stray mention of "PREFIX" later in
// the text does not suppress the block.
func EnsurePrefixes(query string) string {
	trimmed := strings.TrimSpace(query)
	if strings.HasPrefix(strings.ToUpper(trimmed), "PREFIX") {
		return query
	}
	return Prefixes + query
}

// ListTemplates returns all template names in sorted order.
func ListTemplates() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
