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

import (
	"fmt"
	"math"
	"sort"
)

// Pearson computes the Pearson product-moment correlation coefficient and
// its two-sided p-value.
//
// Description:
//
//	The p-value uses the exact t-distribution with n-2 degrees of freedom:
//	t = r * sqrt((n-2) / (1 - r^2)). For |r| == 1 the p-value is 0.
//
// Inputs:
//   - x, y: Paired observations. Must have equal length >= 3.
//
// Outputs:
//   - r: The correlation coefficient in [-1, 1].
//   - p: Two-sided p-value. NaN when either column is constant.
//   - error: Non-nil on length mismatch or too few samples.
func Pearson(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("stats: length mismatch: %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return 0, 0, fmt.Errorf("stats: need at least 3 samples, got %d", n)
	}

	mx := Mean(x)
	my := Mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	if sxx == 0 || syy == 0 {
		// A constant column has no defined correlation.
		return math.NaN(), math.NaN(), nil
	}

	r = sxy / math.Sqrt(sxx*syy)
	// Guard rounding drift outside [-1, 1].
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	if math.Abs(r) == 1 {
		return r, 0, nil
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return r, StudentTPValue(t, df), nil
}

// Spearman computes the Spearman rank correlation coefficient and its
// two-sided p-value.
//
// Description:
//
//	Both columns are converted to ranks (ties receive the average rank)
//	and the Pearson coefficient of the ranks is returned, with the same
//	t-distribution significance test.
//
// Inputs:
//   - x, y: Paired observations. Must have equal length >= 3.
//
// Outputs:
//   - r: The rank correlation coefficient in [-1, 1].
//   - p: Two-sided p-value. NaN when either column is constant.
//   - error: Non-nil on length mismatch or too few samples.
func Spearman(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("stats: length mismatch: %d vs %d", len(x), len(y))
	}
	return Pearson(Ranks(x), Ranks(y))
}

// Ranks converts values to 1-based ranks, assigning tied values the average
// of the ranks they span.
//
// Thread Safety: Safe for concurrent use.
func Ranks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// Average rank across the tie run [i, j].
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
