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

import "fmt"

// In-band error messages surfaced to the model. The exact phrasing
// matters: the prompt tells the model how to recover from each one.
const (
	msgNoDataLoaded = "No data loaded. Run execute_sparql first."
	msgNoDEResults  = "No DE results. Run differential_expression first."
)

// errorResult wraps a message in the in-band error shape.
func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// errorResultf formats an in-band error.
func errorResultf(format string, args ...any) map[string]any {
	return errorResult(fmt.Sprintf(format, args...))
}

// missingParam reports a required argument the model failed to supply.
func missingParam(name string) map[string]any {
	return errorResultf("Missing required parameter: %s", name)
}
