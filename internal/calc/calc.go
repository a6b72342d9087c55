// Package calc turns calculator form inputs into a solved result and a yearly
// growth series.
package calc

import (
	"fmt"
	"math"

	"github.com/verte-zerg/nestegg/internal/finance"
	"github.com/verte-zerg/nestegg/internal/model"
)

const (
	MaxYears       = 100.0
	MaxRatePercent = finance.MaxRatePercent
	MaxAmount      = 1_000_000_000_000.0
)

// Validate checks that every input the mode reads is a finite, non-negative
// number within range. The mode's own output field is ignored.
func Validate(mode model.Mode, in model.Inputs) error {
	out := mode.Output()
	for _, f := range model.Fields {
		if f == out {
			continue
		}
		v := in.Get(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a number", f.Label())
		}
		if v < 0 {
			return fmt.Errorf("%s must be >= 0", f.Label())
		}
		switch f {
		case model.FieldYears:
			if v > MaxYears {
				return fmt.Errorf("%s must be <= %.0f", f.Label(), MaxYears)
			}
		case model.FieldRate:
			if v > MaxRatePercent {
				return fmt.Errorf("%s must be <= %.0f", f.Label(), MaxRatePercent)
			}
		default:
			if v > MaxAmount {
				return fmt.Errorf("%s must be <= %.0f", f.Label(), MaxAmount)
			}
		}
	}
	return nil
}

// Calculate solves for the mode's unknown and projects the trajectory using
// the solved value.
func Calculate(mode model.Mode, in model.Inputs) (model.Result, error) {
	if err := Validate(mode, in); err != nil {
		return model.Result{}, err
	}

	res := model.Result{Mode: mode, Feasible: true}
	r := finance.MonthlyRate(in.AnnualRatePercent)
	n := finance.Periods(in.Years)

	switch mode {
	case model.ModeFutureValue:
		res.MainValue = finance.FutureValue(in.CurrentBalance, in.MonthlyContribution, r, n)
	case model.ModeContribution:
		res.MainValue = finance.SolvePayment(in.CurrentBalance, in.TargetAmount, r, n)
		if n <= 0 && in.TargetAmount > in.CurrentBalance {
			res.Feasible = false
			res.Reason = "Set a time horizon to reach the target."
		}
	case model.ModeStarting:
		res.MainValue = finance.SolvePresentValue(in.MonthlyContribution, in.TargetAmount, r, n)
	case model.ModeTime:
		months := finance.SolveTerm(in.CurrentBalance, in.MonthlyContribution, in.TargetAmount, r)
		res.MainValue = months / 12
		switch {
		case months > 0 && months/12 > MaxYears:
			res.Feasible = false
			res.Reason = fmt.Sprintf("Target takes more than %.0f years.", MaxYears)
		case months <= 0 && in.TargetAmount > in.CurrentBalance:
			res.Feasible = false
			res.Reason = "Target is unreachable with this contribution and return."
		}
	case model.ModeRate:
		rate, converged := finance.SolveRate(in.Years, in.CurrentBalance, in.MonthlyContribution, in.TargetAmount)
		res.MainValue = rate
		if !converged {
			res.Feasible = false
			switch {
			case finance.FutureValue(in.CurrentBalance, in.MonthlyContribution, 0, n) >= in.TargetAmount:
				res.Reason = "Target is reached without any return."
			case finance.FutureValue(in.CurrentBalance, in.MonthlyContribution, finance.MonthlyRate(finance.MinRatePercent), n) >= in.TargetAmount:
				res.Reason = fmt.Sprintf("Target needs less than %.2f%% a year.", finance.MinRatePercent)
			default:
				res.Reason = fmt.Sprintf("Target needs more than %.0f%% a year.", finance.MaxRatePercent)
			}
		}
	default:
		return model.Result{}, fmt.Errorf("unknown mode %q", mode)
	}

	solved := in.Set(mode.Output(), res.MainValue)
	if solved.Years > MaxYears {
		solved.Years = MaxYears
	}
	res.Inputs = solved
	res.Series = Project(solved)
	if len(res.Series) > 0 {
		last := res.Series[len(res.Series)-1]
		res.Breakdown = model.Breakdown{
			Starting:           last.Starting,
			TotalContributions: last.Contributions,
			TotalGrowth:        last.Growth,
		}
	}
	return res, nil
}

// Project builds the yearly trajectory from year 0 through the horizon. A
// fractional horizon adds a final point at the exact horizon.
func Project(in model.Inputs) []model.Point {
	years := in.Years
	if math.IsNaN(years) || years < 0 {
		years = 0
	}
	if years > MaxYears {
		years = MaxYears
	}
	r := finance.MonthlyRate(in.AnnualRatePercent)
	totalMonths := finance.Periods(years)
	lastYear := int(math.Ceil(years))

	points := make([]model.Point, 0, lastYear+1)
	for y := 0; y <= lastYear; y++ {
		months := math.Min(float64(y)*12, totalMonths)
		points = append(points, pointAt(y, in.CurrentBalance, in.MonthlyContribution, r, months))
	}
	return points
}

func pointAt(year int, pv, pmt, r, months float64) model.Point {
	value := finance.FutureValue(pv, pmt, r, months)
	contributions := pmt * months
	growth := value - pv - contributions
	if growth < 0 || math.IsNaN(growth) {
		growth = 0
	}
	return model.Point{
		Year:          year,
		Starting:      pv,
		Contributions: contributions,
		Growth:        growth,
		Total:         pv + contributions + growth,
	}
}
