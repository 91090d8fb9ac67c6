// Package money holds the currency arithmetic shared by the booking flow:
// conversion to the processor's minor units, the amount-consistency check
// and display formatting.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tolerance is the largest absolute difference between two amounts that
// still counts as equal.  It absorbs floating-point noise from clients.
var Tolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts an amount to the processor's smallest currency unit,
// rounding half away from zero: 4500.005 -> 450001.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}

// Match reports whether a and b differ by at most Tolerance.
func Match(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(Tolerance)
}

// Sum adds amounts without accumulating binary rounding error.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}

var printer = message.NewPrinter(language.English)

// Format renders an amount with thousands separators and two decimals,
// prefixed by the upper-cased currency code: "AED 4,500.00".
func Format(currency string, amount float64) string {
	rounded := decimal.NewFromFloat(amount).Round(2).InexactFloat64()
	return strings.ToUpper(currency) + " " + printer.Sprintf("%.2f", rounded)
}
