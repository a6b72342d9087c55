package render

import (
	"fmt"
	"io"

	"github.com/verte-zerg/nestegg/internal/model"
)

// FormatValue formats a field value the way the form shows it.
func FormatValue(f model.Field, v float64) string {
	switch f {
	case model.FieldYears:
		return FormatYears(v)
	case model.FieldRate:
		return FormatPercent(v)
	default:
		return FormatMoney(v)
	}
}

// Headline returns the solved value of a result as display text.
func Headline(res model.Result) string {
	if !res.Feasible {
		return "No feasible solution"
	}
	return FormatValue(res.Mode.Output(), res.MainValue)
}

// BreakdownRows returns label/value pairs describing where the final
// balance comes from.
func BreakdownRows(res model.Result) [][]string {
	b := res.Breakdown
	return [][]string{
		{"Starting balance", FormatMoney(b.Starting)},
		{"Total contributions", FormatMoney(b.TotalContributions)},
		{"Total growth", FormatMoney(b.TotalGrowth)},
		{"Final balance", FormatMoney(b.Starting + b.TotalContributions + b.TotalGrowth)},
	}
}

// RenderSummary prints the headline value and the breakdown.
func RenderSummary(w io.Writer, res model.Result) error {
	if _, err := fmt.Fprintf(w, "%s: %s\n", res.Mode.Title(), Headline(res)); err != nil {
		return err
	}
	if !res.Feasible && res.Reason != "" {
		if _, err := fmt.Fprintln(w, res.Reason); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	rows := [][]string{
		{"Current balance", FormatMoney(res.Inputs.CurrentBalance)},
		{"Monthly contribution", FormatMoney(res.Inputs.MonthlyContribution)},
		{"Time horizon", FormatYears(res.Inputs.Years)},
		{"Annual return", FormatPercent(res.Inputs.AnnualRatePercent)},
	}
	if res.Mode != model.ModeFutureValue {
		rows = append(rows, []string{"Target amount", FormatMoney(res.Inputs.TargetAmount)})
	}
	rows = append(rows, []string{"", ""})
	rows = append(rows, BreakdownRows(res)...)
	for _, line := range formatTable(nil, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
