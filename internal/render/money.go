package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
var CurrencySymbol = "$"

// FormatMoney formats an amount with thousands separators and cents. Cents
// round half away from zero on the decimal value, not the binary float.
func FormatMoney(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	intPart, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + CurrencySymbol + groupThousands(intPart) + "." + frac
}

// FormatMoneyShort abbreviates large amounts, e.g. $1.25M or $350k.
func FormatMoneyShort(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(amount)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	var (
		billion  = decimal.New(1, 9)
		million  = decimal.New(1, 6)
		thousand = decimal.New(1, 3)
	)
	switch {
	case d.GreaterThanOrEqual(billion):
		return sign + CurrencySymbol + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return sign + CurrencySymbol + d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(decimal.New(1, 4)):
		return sign + CurrencySymbol + d.Div(thousand).StringFixed(0) + "k"
	case d.GreaterThanOrEqual(thousand):
		return sign + CurrencySymbol + d.Div(thousand).StringFixed(1) + "k"
	default:
		return sign + CurrencySymbol + d.StringFixed(0)
	}
}

// FormatPercent formats an annual rate given in percent.
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent)
}

// FormatYears renders a horizon as whole years and months, rounding months up.
func FormatYears(years float64) string {
	if math.IsNaN(years) || math.IsInf(years, 0) || years <= 0 {
		return "0 months"
	}
	months := int(math.Ceil(years*12 - 1e-9))
	y, m := months/12, months%12
	parts := make([]string, 0, 2)
	if y > 0 {
		parts = append(parts, plural(y, "year"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "month"))
	}
	if len(parts) == 0 {
		return "0 months"
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
