// Package finance implements monthly-compounding time-value-of-money formulas.
//
// Every function is total over non-negative inputs: degenerate or unreachable
// cases return zero instead of NaN, Inf or an error. Callers decide whether a
// zero means "nothing needed" or "no feasible solution".
package finance

import "math"

const (
	// MinRatePercent is the lower bound of the rate bisection bracket.
	MinRatePercent = 0.01
	// MaxRatePercent is the upper bound of the rate bisection bracket.
	MaxRatePercent = 100.0
	// RateIterations caps the number of bisection steps.
	RateIterations = 50
	// RateTolerance is how close the projected value must get to the target.
	RateTolerance = 1.0

	monthsPerYear = 12
)

// MonthlyRate converts an annual percentage into a monthly periodic rate.
func MonthlyRate(annualPercent float64) float64 {
	return annualPercent / 100 / monthsPerYear
}

// Periods converts a horizon in years into monthly periods.
func Periods(years float64) float64 {
	return years * monthsPerYear
}

// FutureValue returns the balance after n periods starting from pv and adding
// pmt at the end of every period, compounded at periodic rate r.
func FutureValue(pv, pmt, r, n float64) float64 {
	if r == 0 {
		return pv + pmt*n
	}
	growth := math.Pow(1+r, n)
	return pv*growth + pmt*(growth-1)/r
}

// SolvePayment returns the periodic contribution that grows pv into fv over n
// periods at rate r. The result is floored at zero.
func SolvePayment(pv, fv, r, n float64) float64 {
	if n <= 0 {
		return 0
	}
	var pmt float64
	if r == 0 {
		pmt = (fv - pv) / n
	} else {
		growth := math.Pow(1+r, n)
		pmt = (fv - pv*growth) * r / (growth - 1)
	}
	return floorZero(pmt)
}

// SolvePresentValue returns the starting balance that, with contribution pmt,
// grows into fv over n periods at rate r. The result is floored at zero.
func SolvePresentValue(pmt, fv, r, n float64) float64 {
	var pv float64
	if r == 0 {
		pv = fv - pmt*n
	} else {
		growth := math.Pow(1+r, n)
		pv = (fv - pmt*(growth-1)/r) / growth
	}
	return floorZero(pv)
}

// SolveTerm returns the number of periods needed for pv plus contribution pmt
// to reach fv at rate r. Zero means the goal is already met or cannot be
// reached with the given contribution and rate.
func SolveTerm(pv, pmt, fv, r float64) float64 {
	if fv <= pv {
		return 0
	}
	if r == 0 {
		if pmt <= 0 {
			return 0
		}
		return (fv - pv) / pmt
	}
	num := fv*r + pmt
	den := pv*r + pmt
	if den <= 0 {
		return 0
	}
	arg := num / den
	if arg <= 0 {
		return 0
	}
	return floorZero(math.Log(arg) / math.Log(1+r))
}

// SolveRate bisects the annual rate, in percent, that grows pv with monthly
// contribution pmt into fv over the given years. It stops after
// RateIterations steps or once the projection is within RateTolerance of fv,
// and returns the last midpoint. converged reports whether the tolerance was
// met; a bracket that cannot contain fv always ends unconverged.
func SolveRate(years, pv, pmt, fv float64) (ratePercent float64, converged bool) {
	n := Periods(years)
	lo, hi := MinRatePercent, MaxRatePercent
	mid := (lo + hi) / 2
	for i := 0; i < RateIterations; i++ {
		mid = (lo + hi) / 2
		projected := FutureValue(pv, pmt, MonthlyRate(mid), n)
		if math.Abs(projected-fv) < RateTolerance {
			return mid, true
		}
		if projected < fv {
			lo = mid
		} else {
			hi = mid
		}
	}
	return mid, false
}

func floorZero(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return 0
	}
	return v
}
