// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which quantity the calculator solves for.
type Mode string

const (
	ModeFutureValue  Mode = "future-value"
	ModeContribution Mode = "contribution"
	ModeTime         Mode = "time"
	ModeRate         Mode = "rate"
	ModeStarting     Mode = "starting"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeFutureValue, ModeContribution, ModeTime, ModeRate, ModeStarting}

var modeAliases = map[string]Mode{
	"fv":      ModeFutureValue,
	"pmt":     ModeContribution,
	"monthly": ModeContribution,
	"term":    ModeTime,
	"years":   ModeTime,
	"return":  ModeRate,
	"pv":      ModeStarting,
	"balance": ModeStarting,
}

// ParseMode resolves a mode name or alias.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	if m, ok := modeAliases[s]; ok {
		return m, nil
	}
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return "", fmt.Errorf("unknown mode %q (available: %s)", s, strings.Join(names, ", "))
}

// Title returns a human label for the mode.
func (m Mode) Title() string {
	switch m {
	case ModeFutureValue:
		return "Future value"
	case ModeContribution:
		return "Monthly contribution"
	case ModeTime:
		return "Time to goal"
	case ModeRate:
		return "Required return"
	case ModeStarting:
		return "Starting balance"
	default:
		return string(m)
	}
}

// Field identifies one of the calculator inputs.
type Field int

const (
	FieldBalance Field = iota
	FieldMonthly
	FieldTarget
	FieldYears
	FieldRate
)

// Fields lists every input field in form order.
var Fields = []Field{FieldBalance, FieldMonthly, FieldTarget, FieldYears, FieldRate}

// Label returns the form label for the field.
func (f Field) Label() string {
	switch f {
	case FieldBalance:
		return "Current balance"
	case FieldMonthly:
		return "Monthly contribution"
	case FieldTarget:
		return "Target amount"
	case FieldYears:
		return "Time horizon (years)"
	case FieldRate:
		return "Annual return (%)"
	default:
		return ""
	}
}

// Output returns the field a mode solves for.
func (m Mode) Output() Field {
	switch m {
	case ModeContribution:
		return FieldMonthly
	case ModeTime:
		return FieldYears
	case ModeRate:
		return FieldRate
	case ModeStarting:
		return FieldBalance
	default:
		return FieldTarget
	}
}

// Inputs holds the calculator form values. All values are non-negative.
type Inputs struct {
	CurrentBalance      float64 `json:"current_balance"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	TargetAmount        float64 `json:"target_amount"`
	Years               float64 `json:"years"`
	AnnualRatePercent   float64 `json:"annual_rate_percent"`
}

// Get returns the value stored for a field.
func (in Inputs) Get(f Field) float64 {
	switch f {
	case FieldBalance:
		return in.CurrentBalance
	case FieldMonthly:
		return in.MonthlyContribution
	case FieldTarget:
		return in.TargetAmount
	case FieldYears:
		return in.Years
	case FieldRate:
		return in.AnnualRatePercent
	default:
		return 0
	}
}

// Set returns a copy of the inputs with the field replaced.
func (in Inputs) Set(f Field, v float64) Inputs {
	switch f {
	case FieldBalance:
		in.CurrentBalance = v
	case FieldMonthly:
		in.MonthlyContribution = v
	case FieldTarget:
		in.TargetAmount = v
	case FieldYears:
		in.Years = v
	case FieldRate:
		in.AnnualRatePercent = v
	}
	return in
}

// Breakdown splits the final balance into its sources.
type Breakdown struct {
	Starting           float64
	TotalContributions float64
	TotalGrowth        float64
}

// Point is one year of the projected trajectory.
// Total always equals Starting + Contributions + Growth.
type Point struct {
	Year          int
	Starting      float64
	Contributions float64
	Growth        float64
	Total         float64
}

// Result is the outcome of one calculation.
type Result struct {
	Mode      Mode
	MainValue float64
	// Feasible is false when the solved value is a "no solution" sentinel.
	Feasible  bool
	Reason    string
	Inputs    Inputs
	Breakdown Breakdown
	Series    []Point
}

// FormState is the persisted calculator form.
type FormState struct {
	Mode    Mode      `json:"mode"`
	Inputs  Inputs    `json:"inputs"`
	SavedAt time.Time `json:"saved_at"`
}

// Calculation is a recorded calculation in history.
type Calculation struct {
	ID        string
	CreatedAt time.Time
	Mode      Mode
	Inputs    Inputs
	MainValue float64
	Feasible  bool
}
