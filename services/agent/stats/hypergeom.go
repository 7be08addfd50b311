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

import "math"

// HypergeomPMF returns P(X == k) for a hypergeometric distribution drawing
// n items without replacement from a population of size m that contains
// kSuccess marked items.
//
// Thread Safety: Safe for concurrent use.
func HypergeomPMF(k, m, kSuccess, n int) float64 {
	if k < 0 || k > n || k > kSuccess || n-k > m-kSuccess {
		return 0
	}
	lp := lchoose(float64(kSuccess), float64(k)) +
		lchoose(float64(m-kSuccess), float64(n-k)) -
		lchoose(float64(m), float64(n))
	if math.IsInf(lp, -1) {
		return 0
	}
	return math.Exp(lp)
}

// HypergeomSurvival returns P(X >= k) for the same distribution, the
// over-representation tail used in enrichment analysis.
//
// Description:
//
//	Computed by direct PMF summation from k to min(kSuccess, n) in log
//	space, then clamped to [0, 1] to absorb floating-point drift.
//
// Inputs:
//   - k: Observed overlap count.
//   - m: Population (universe) size.
//   - kSuccess: Number of marked items in the population.
//   - n: Sample (draw) size.
//
// Outputs:
//   - float64: P(X >= k) in [0, 1].
//
// Thread Safety: Safe for concurrent use.
func HypergeomSurvival(k, m, kSuccess, n int) float64 {
	if k <= 0 {
		return 1
	}
	upper := kSuccess
	if n < upper {
		upper = n
	}
	if k > upper {
		return 0
	}

	var sum float64
	for i := k; i <= upper; i++ {
		sum += HypergeomPMF(i, m, kSuccess, n)
	}
	if sum > 1 {
		sum = 1
	} else if sum < 0 {
		sum = 0
	}
	return sum
}
