package shared

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AmountDenominator is the number of sub-units in one whole unit.
// 81000 keeps a milli-unit (81) divisible by 3.
const AmountDenominator int64 = 81000

// subUnitsPerMilli is the number of sub-units in 1/1000 of a unit
const subUnitsPerMilli = AmountDenominator / 1000

// Amount is an exact fixed-point quantity: whole units plus a numerator over AmountDenominator.
//
// Invariants:
// - Arithmetic never wraps; an out-of-range result is flagged with IsOverflow
// - Operands are values and are never mutated
// - An overflowed Amount stays overflowed through further arithmetic
type Amount struct {
	sub      int64
	overflow bool
}

// ZeroAmount is the empty quantity
var ZeroAmount = Amount{}

var overflowAmount = Amount{overflow: true}

// AmountOfWhole creates an Amount of n whole units
func AmountOfWhole(n int64) Amount {
	return AmountOf(n, 0)
}

// AmountOf creates an Amount from whole units plus numerator/AmountDenominator
func AmountOf(whole, numerator int64) Amount {
	w, ok := mulInt64(whole, AmountDenominator)
	if !ok {
		return overflowAmount
	}
	s, ok := addInt64(w, numerator)
	if !ok {
		return overflowAmount
	}
	return Amount{sub: s}
}

// AmountOfSubUnits creates an Amount directly from sub-units
func AmountOfSubUnits(n int64) Amount {
	return Amount{sub: n}
}

// AmountOfMilli creates an Amount of n thousandths of a unit
func AmountOfMilli(n int64) Amount {
	s, ok := mulInt64(n, subUnitsPerMilli)
	if !ok {
		return overflowAmount
	}
	return Amount{sub: s}
}

// ParseAmount parses a decimal string with at most three fraction digits ("1", "0.25", "-3.125")
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAmount, fmt.Errorf("amount cannot be empty")
	}

	negative := false
	if s[0] == '-' || s[0] == '+' {
		negative = s[0] == '-'
		s = s[1:]
	}

	wholePart, fracPart, hasFrac := strings.Cut(s, ".")
	if wholePart == "" {
		wholePart = "0"
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return ZeroAmount, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var milli int64
	if hasFrac {
		if len(fracPart) == 0 || len(fracPart) > 3 {
			return ZeroAmount, fmt.Errorf("invalid amount %q: expected 1 to 3 fraction digits", s)
		}
		fracPart += strings.Repeat("0", 3-len(fracPart))
		milli, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return ZeroAmount, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}

	a := AmountOfWhole(whole).Add(AmountOfMilli(milli))
	if negative {
		a = ZeroAmount.Sub(a)
	}
	if a.IsOverflow() {
		return ZeroAmount, fmt.Errorf("amount %q out of range", s)
	}
	return a, nil
}

// Add returns a+b
func (a Amount) Add(b Amount) Amount {
	if a.overflow || b.overflow {
		return overflowAmount
	}
	s, ok := addInt64(a.sub, b.sub)
	if !ok {
		return overflowAmount
	}
	return Amount{sub: s}
}

// Sub returns a-b
func (a Amount) Sub(b Amount) Amount {
	if a.overflow || b.overflow {
		return overflowAmount
	}
	if b.sub == math.MinInt64 {
		return overflowAmount
	}
	s, ok := addInt64(a.sub, -b.sub)
	if !ok {
		return overflowAmount
	}
	return Amount{sub: s}
}

// Mul returns a*k
func (a Amount) Mul(k int64) Amount {
	if a.overflow {
		return overflowAmount
	}
	s, ok := mulInt64(a.sub, k)
	if !ok {
		return overflowAmount
	}
	return Amount{sub: s}
}

// Div returns a/k truncated toward zero. Division by zero is flagged as overflow.
func (a Amount) Div(k int64) Amount {
	if a.overflow || k == 0 {
		return overflowAmount
	}
	if a.sub == math.MinInt64 && k == -1 {
		return overflowAmount
	}
	return Amount{sub: a.sub / k}
}

// CoerceAtMost returns min(a, limit)
func (a Amount) CoerceAtMost(limit Amount) Amount {
	if a.overflow || limit.overflow {
		return overflowAmount
	}
	if a.sub > limit.sub {
		return limit
	}
	return a
}

// CoerceAtLeast returns max(a, floor)
func (a Amount) CoerceAtLeast(floor Amount) Amount {
	if a.overflow || floor.overflow {
		return overflowAmount
	}
	if a.sub < floor.sub {
		return floor
	}
	return a
}

// Min returns the smaller of a and b
func (a Amount) Min(b Amount) Amount {
	return a.CoerceAtMost(b)
}

// Cmp returns -1, 0 or 1. Overflowed amounts compare greater than any valid amount.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.overflow && b.overflow:
		return 0
	case a.overflow:
		return 1
	case b.overflow:
		return -1
	case a.sub < b.sub:
		return -1
	case a.sub > b.sub:
		return 1
	}
	return 0
}

// Equal reports exact equality
func (a Amount) Equal(b Amount) bool {
	return a == b
}

// IsZero reports whether the amount is exactly zero
func (a Amount) IsZero() bool {
	return !a.overflow && a.sub == 0
}

// IsNegative reports whether the amount is below zero
func (a Amount) IsNegative() bool {
	return !a.overflow && a.sub < 0
}

// IsPositive reports whether the amount is above zero
func (a Amount) IsPositive() bool {
	return !a.overflow && a.sub > 0
}

// IsOverflow reports whether the amount is the result of an out-of-range operation
func (a Amount) IsOverflow() bool {
	return a.overflow
}

// Whole returns the whole-unit part, truncated toward zero
func (a Amount) Whole() int64 {
	return a.sub / AmountDenominator
}

// Numerator returns the sub-unit remainder over AmountDenominator
func (a Amount) Numerator() int64 {
	return a.sub % AmountDenominator
}

// SubUnits returns the raw sub-unit count
func (a Amount) SubUnits() int64 {
	return a.sub
}

// Milli returns the amount in thousandths, truncated
func (a Amount) Milli() int64 {
	return a.sub / subUnitsPerMilli
}

// Float64 returns an inexact representation for display
func (a Amount) Float64() float64 {
	return float64(a.sub) / float64(AmountDenominator)
}

func (a Amount) String() string {
	if a.overflow {
		return "Amount(overflow)"
	}
	if a.sub < 0 && a.sub != math.MinInt64 {
		return "-" + Amount{sub: -a.sub}.String()
	}
	if a.Numerator() == 0 {
		return strconv.FormatInt(a.Whole(), 10)
	}
	return fmt.Sprintf("%d+%d/%d", a.Whole(), a.Numerator(), AmountDenominator)
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (c < 0) != ((a < 0) != (b < 0)) {
		return 0, false
	}
	if c/b != a {
		return 0, false
	}
	return c, true
}
