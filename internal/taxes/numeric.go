// Package taxes computes French tax declaration amounts for equity
// compensation sales.
//
// The package is pure: it takes sale events and already-resolved market data
// tables and returns a model.FrTaxes value. It performs no I/O.
package taxes

import (
	"math"
	"strconv"
	"strings"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// FloorNumber rounds value down to digits decimal places.
func FloorNumber(value float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Floor(value*factor) / factor
}

// CeilNumber rounds value up to digits decimal places.
func CeilNumber(value float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Ceil(value*factor) / factor
}

// RoundNumber rounds value to the nearest digits decimal places.
// Halves round towards positive infinity, so -2.5 rounds to -2.
func RoundNumber(value float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Floor(value*factor+0.5) / factor
}

// Form 2074 precisions.
func floor6(v float64) float64 { return FloorNumber(v, 6) }
func floor0(v float64) float64 { return FloorNumber(v, 0) }
func ceil2(v float64) float64  { return CeilNumber(v, 2) }
func round0(v float64) float64 { return RoundNumber(v, 0) }

// FormatNumber formats value with exactly 2 decimals.
//
//	FormatNumber(1)     // "1.00"
//	FormatNumber(1.234) // "1.23"
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// FormatNumberPrecision formats value with up to precision decimals, trimming
// trailing zeros but always keeping at least 2 decimals.
//
//	FormatNumberPrecision(1, 3)       // "1.00"
//	FormatNumberPrecision(1.12345, 6) // "1.12345"
//	FormatNumberPrecision(1.124, 3)   // "1.124"
func FormatNumberPrecision(value float64, precision int) string {
	if precision <= 2 {
		return strconv.FormatFloat(value, 'f', precision, 64)
	}
	s := strconv.FormatFloat(value, 'f', precision, 64)
	dot := strings.IndexByte(s, '.')
	minLen := dot + 3
	end := len(s)
	for end > minLen && s[end-1] == '0' {
		end--
	}
	return s[:end]
}

// FormatOptional formats a possibly absent number, rendering absence as "–".
func FormatOptional(value model.Optional[float64]) string {
	v, ok := value.Get()
	if !ok {
		return "–"
	}
	return FormatNumber(v)
}
