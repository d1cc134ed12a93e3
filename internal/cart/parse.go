package cart

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minExponent = -12
	maxExponent = 12
	maxQuantity = math.MaxInt32
)

// maxAmount bounds any operator-entered amount; larger values count as invalid.
var maxAmount = decimal.New(1, 12)

// parseNumber accepts "1500", "1500.5", "1500,5" and "1.500,5". Values whose
// exponent or magnitude is out of range are rejected before any arithmetic.
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Zero, false
	}
	if d.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, false
	}
	return d, true
}

func parseQuantity(raw string) int {
	d, ok := parseNumber(raw)
	if !ok || d.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return 1
	}
	q := d.IntPart()
	if q < 1 {
		return 1
	}
	return int(q)
}

func parseAmount(raw string) decimal.Decimal {
	d, ok := parseNumber(raw)
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
