package report

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minFractionDigits = 2
	maxFractionDigits = 6
	notAvailable      = "N/A"
)

// FormatCurrency renders a USD amount such as "$1,234.5678". Nil or non-finite values render as "N/A".
func FormatCurrency(v *float64) string {
	if !finite(v) {
		return notAvailable
	}
	s := formatDecimal(decimal.NewFromFloat(*v), minFractionDigits, maxFractionDigits)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatPrice is FormatCurrency without the currency symbol.
func FormatPrice(v *float64) string {
	if !finite(v) {
		return notAvailable
	}
	return formatDecimal(decimal.NewFromFloat(*v), minFractionDigits, maxFractionDigits)
}

// FormatNumber groups thousands and keeps up to three fraction digits.
func FormatNumber(v *float64) string {
	if !finite(v) {
		return notAvailable
	}
	return formatDecimal(decimal.NewFromFloat(*v), 0, 3)
}

// FormatPercentage renders v with a leading sign for non-negative values, e.g. "+1.25%".
func FormatPercentage(v *float64, decimals int) string {
	if !finite(v) {
		return notAvailable
	}
	if decimals < 0 {
		decimals = 0
	}
	sign := ""
	if *v >= 0 {
		sign = "+"
	}
	return sign + decimal.NewFromFloat(*v).StringFixed(int32(decimals)) + "%"
}

// Ptr is a shorthand for passing literal values to the formatters.
func Ptr(v float64) *float64 { return &v }

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func formatDecimal(d decimal.Decimal, minFrac, maxFrac int) string {
	d = d.Round(int32(maxFrac))
	neg := d.IsNegative()
	s := d.Abs().StringFixed(int32(maxFrac))

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}
	for len(frac) > minFrac && frac[len(frac)-1] == '0' {
		frac = frac[:len(frac)-1]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(intPart))
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
