package common

import (
	"fmt"
	"math"
	"strconv"
)

// FormatDecimal renders v in plain positional notation with the shortest
// digits that round-trip: no exponent and no trailing zeros. Non-finite
// values render as NaN, +Inf or -Inf, never as a number.
func FormatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v == 0 {
		// collapses -0
		return "0"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decimal is a float64 that serializes through FormatDecimal, so stored and
// served values never appear as 1e-05 or 12.300000000000001-style noise
// beyond what the value itself carries.
type Decimal float64

func (d Decimal) Float() float64 {
	return float64(d)
}

func (d Decimal) String() string {
	return FormatDecimal(float64(d))
}

// Finite reports whether d is neither NaN nor infinite.
func (d Decimal) Finite() bool {
	return !math.IsNaN(float64(d)) && !math.IsInf(float64(d), 0)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	if !d.Finite() {
		return nil, fmt.Errorf("unsupported decimal value %s", FormatDecimal(float64(d)))
	}
	return []byte(FormatDecimal(float64(d))), nil
}
