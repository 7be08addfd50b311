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

// WelchTTest performs a two-sided Welch's t-test on two independent samples
// without assuming equal variances.
//
// Description:
//
//	Degrees of freedom follow the Welch-Satterthwaite approximation. When
//	both samples are constant the statistic is undefined and NaN is
//	returned for both values.
//
// Inputs:
//   - a, b: Independent samples. Each must contain at least 2 values.
//
// Outputs:
//   - t: The Welch t statistic. NaN when undefined.
//   - p: Two-sided p-value. NaN when undefined or when either sample has
//     fewer than 2 values.
//
// Thread Safety: Safe for concurrent use.
func WelchTTest(a, b []float64) (t, p float64) {
	na := float64(len(a))
	nb := float64(len(b))
	if na < 2 || nb < 2 {
		return math.NaN(), math.NaN()
	}

	ma := Mean(a)
	mb := Mean(b)
	va := Variance(a)
	vb := Variance(b)

	sea := va / na
	seb := vb / nb
	se := sea + seb
	if se == 0 {
		if ma == mb {
			// Identical constant samples: no evidence either way.
			return 0, 1
		}
		return math.NaN(), math.NaN()
	}

	t = (ma - mb) / math.Sqrt(se)

	// Welch-Satterthwaite degrees of freedom.
	df := se * se / (sea*sea/(na-1) + seb*seb/(nb-1))
	return t, StudentTPValue(t, df)
}
