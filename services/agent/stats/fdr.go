// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

// BenjaminiHochberg applies the Benjamini-Hochberg false-discovery-rate
// correction to a list of p-values already sorted in ascending order.
//
// Description:
//
//	For the value at 1-based rank r out of n, the adjusted p-value is
//	min(1.0, p * n / r). Input order is not modified; the correction is
//	applied positionally, so callers must sort first.
//
// Inputs:
//   - sortedP: P-values in ascending order.
//
// Outputs:
//   - []float64: Adjusted p-values, same length and order as the input.
//
// Thread Safety: Safe for concurrent use.
func BenjaminiHochberg(sortedP []float64) []float64 {
	n := len(sortedP)
	adjusted := make([]float64, n)
	for i, p := range sortedP {
		adj := p * float64(n) / float64(i+1)
		if adj > 1 {
			adj = 1
		}
		adjusted[i] = adj
	}
	return adjusted
}
