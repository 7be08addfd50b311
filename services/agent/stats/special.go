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

// Special functions needed by the significance tests. The regularized
// incomplete beta function is evaluated with the standard continued-fraction
// expansion (modified Lentz's method); the Student's t tail probability
// reduces to it directly.

const (
	betacfMaxIter = 200
	betacfEps     = 3e-14
	betacfFPMin   = 1e-300
)

// lgamma wraps math.Lgamma, discarding the sign (arguments here are always
// positive).
func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// betacf evaluates the continued fraction for the incomplete beta function.
func betacf(a, b, x float64) float64 {
	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < betacfFPMin {
		d = betacfFPMin
	}
	d = 1 / d
	h := d

	for m := 1; m <= betacfMaxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < betacfFPMin {
			d = betacfFPMin
		}
		c = 1 + aa/c
		if math.Abs(c) < betacfFPMin {
			c = betacfFPMin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < betacfFPMin {
			d = betacfFPMin
		}
		c = 1 + aa/c
		if math.Abs(c) < betacfFPMin {
			c = betacfFPMin
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < betacfEps {
			break
		}
	}
	return h
}

// RegIncBeta returns the regularized incomplete beta function I_x(a, b).
//
// Inputs:
//   - a, b: Shape parameters. Must be positive.
//   - x: Evaluation point, clamped to [0, 1].
//
// Outputs:
//   - float64: I_x(a, b) in [0, 1].
func RegIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lnFront := lgamma(a+b) - lgamma(a) - lgamma(b) + a*math.Log(x) + b*math.Log(1-x)
	front := math.Exp(lnFront)

	// Use the continued fraction directly in its fast-converging region,
	// the symmetry relation otherwise.
	if x < (a+1)/(a+b+2) {
		return front * betacf(a, b, x) / a
	}
	return 1 - front*betacf(b, a, 1-x)/b
}

// StudentTPValue returns the two-sided p-value for a Student's t statistic.
//
// Inputs:
//   - t: The t statistic.
//   - df: Degrees of freedom. Must be positive.
//
// Outputs:
//   - float64: Two-sided p-value in [0, 1]. NaN if df <= 0 or t is NaN.
func StudentTPValue(t, df float64) float64 {
	if df <= 0 || math.IsNaN(t) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	// P(|T| >= |t|) = I_{df/(df+t^2)}(df/2, 1/2)
	x := df / (df + t*t)
	p := RegIncBeta(df/2, 0.5, x)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// lchoose returns log(C(n, k)) via log-gamma. Returns -Inf when the
// combination is impossible.
func lchoose(n, k float64) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	return lgamma(n+1) - lgamma(k+1) - lgamma(n-k+1)
}
