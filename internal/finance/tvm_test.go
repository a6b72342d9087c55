package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureValueZeroRate(t *testing.T) {
	got := FutureValue(1000, 100, 0, 12)
	if got != 2200 {
		t.Fatalf("expected exactly 2200, got %v", got)
	}
}

func TestFutureValueKnownValue(t *testing.T) {
	// 10k at 6%/yr monthly for 10 years, plus 100/month.
	r := MonthlyRate(6)
	n := Periods(10)
	got := FutureValue(10000, 100, r, n)
	require.InDelta(t, 18193.97+16387.93, got, 0.05)
}

func TestFutureValueNeverBelowContributions(t *testing.T) {
	cases := []struct {
		pv, pmt, rate, years float64
	}{
		{0, 0, 0, 0},
		{1000, 0, 5, 10},
		{0, 250, 7, 30},
		{50000, 1000, 0.01, 1},
		{1, 1, 100, 50},
		{12345.67, 89.1, 3.3, 0.5},
	}
	for _, tc := range cases {
		n := Periods(tc.years)
		got := FutureValue(tc.pv, tc.pmt, MonthlyRate(tc.rate), n)
		floor := tc.pv + tc.pmt*n
		assert.GreaterOrEqualf(t, got, floor-1e-9, "pv=%v pmt=%v rate=%v years=%v", tc.pv, tc.pmt, tc.rate, tc.years)
	}
}

func TestSolvePaymentRoundTrip(t *testing.T) {
	cases := []struct {
		pv, fv, rate, years float64
	}{
		{10000, 1000000, 7, 30},
		{0, 50000, 4.5, 10},
		{2500, 10000, 0, 5},
		{100, 200, 12, 0.25},
	}
	for _, tc := range cases {
		r := MonthlyRate(tc.rate)
		n := Periods(tc.years)
		pmt := SolvePayment(tc.pv, tc.fv, r, n)
		require.Greater(t, pmt, 0.0)
		assert.InDelta(t, tc.fv, FutureValue(tc.pv, pmt, r, n), 1e-6*tc.fv)
	}
}

func TestSolvePaymentFloorsAtZero(t *testing.T) {
	// Starting balance alone overshoots the target.
	assert.Equal(t, 0.0, SolvePayment(100000, 1000, MonthlyRate(5), 120))
	assert.Equal(t, 0.0, SolvePayment(100000, 1000, 0, 120))
	assert.Equal(t, 0.0, SolvePayment(0, 1000, MonthlyRate(5), 0))
}

func TestSolvePresentValueRoundTrip(t *testing.T) {
	r := MonthlyRate(6)
	n := Periods(20)
	pv := SolvePresentValue(300, 500000, r, n)
	require.Greater(t, pv, 0.0)
	assert.InDelta(t, 500000, FutureValue(pv, 300, r, n), 1e-6)

	assert.Equal(t, 400.0, SolvePresentValue(50, 1000, 0, 12))
}

func TestSolvePresentValueFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0.0, SolvePresentValue(1000, 5000, MonthlyRate(5), 120))
	assert.Equal(t, 0.0, SolvePresentValue(1000, 5000, 0, 120))
}

func TestSolveTerm(t *testing.T) {
	r := MonthlyRate(5)
	n := SolveTerm(10000, 200, 100000, r)
	require.Greater(t, n, 0.0)
	assert.InDelta(t, 100000, FutureValue(10000, 200, r, n), 1e-6)

	assert.Equal(t, 45.0, SolveTerm(1000, 100, 5500, 0))
}

func TestSolveTermUnreachable(t *testing.T) {
	// Target below balance with no contribution.
	assert.Equal(t, 0.0, SolveTerm(5000, 0, 1000, MonthlyRate(5)))
	assert.Equal(t, 0.0, SolveTerm(5000, 0, 1000, 0))
	// Nothing invested and nothing contributed.
	assert.Equal(t, 0.0, SolveTerm(0, 0, 1000, MonthlyRate(5)))
	assert.Equal(t, 0.0, SolveTerm(0, 0, 1000, 0))
	for _, v := range []float64{
		SolveTerm(0, 0, 1000, MonthlyRate(5)),
		SolveTerm(1000, 0, 1e300, MonthlyRate(1)),
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "got %v", v)
	}
}

func TestSolveRate(t *testing.T) {
	rate, converged := SolveRate(20, 10000, 500, 200000)
	require.True(t, converged)
	require.GreaterOrEqual(t, rate, MinRatePercent)
	require.LessOrEqual(t, rate, MaxRatePercent)
	got := FutureValue(10000, 500, MonthlyRate(rate), Periods(20))
	assert.InDelta(t, 200000, got, RateTolerance)
}

func TestSolveRateOutsideBracket(t *testing.T) {
	// Contributions alone already exceed the target.
	rate, converged := SolveRate(10, 0, 1000, 1000)
	assert.False(t, converged)
	assert.InDelta(t, MinRatePercent, rate, 1e-6)

	// Would need more than 100% a year.
	rate, converged = SolveRate(1, 100, 0, 1e9)
	assert.False(t, converged)
	assert.InDelta(t, MaxRatePercent, rate, 1e-6)
}
