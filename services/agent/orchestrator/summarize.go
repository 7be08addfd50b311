// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"encoding/json"
	"fmt"
)

// summarizeResultMaxLen bounds the fallback summary of an unrecognized
// result shape.
const summarizeResultMaxLen = 100

// summarizeResult renders a one-line digest of a tool result for the
// call history. Checks run in priority order: errors win over data.
func summarizeResult(result map[string]any) string {
	if msg, ok := result["error"]; ok && msg != nil {
		return fmt.Sprintf("Error: %v", msg)
	}
	if count, ok := result["row_count"]; ok {
		return fmt.Sprintf("%v rows returned", count)
	}
	if r, ok := result["correlation"]; ok {
		if f, isNum := r.(float64); isNum {
			return fmt.Sprintf("r=%.3f", f)
		}
		return "No correlation"
	}
	if fc, ok := result["fold_change"]; ok {
		if f, isNum := fc.(float64); isNum {
			return fmt.Sprintf("FC=%.2f", f)
		}
		return "No fold change"
	}
	if pathwaysVal, ok := result["enriched_pathways"]; ok {
		return fmt.Sprintf("%d enriched pathways", lenOf(pathwaysVal))
	}

	s := ""
	if encoded, err := json.Marshal(result); err == nil {
		s = string(encoded)
	} else {
		s = fmt.Sprintf("%v", result)
	}
	if len(s) > summarizeResultMaxLen {
		s = s[:summarizeResultMaxLen]
	}
	return s
}

// lenOf counts the elements of a slice-shaped value without knowing its
// element type.
func lenOf(v any) int {
	switch x := v.(type) {
	case []any:
		return len(x)
	case []map[string]any:
		return len(x)
	default:
		// Round-trip through JSON for typed slices.
		encoded, err := json.Marshal(v)
		if err != nil {
			return 0
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(encoded, &raw); err != nil {
			return 0
		}
		return len(raw)
	}
}
