package strategy

import (
	"math"

	"github.com/jwtly10/sniper/internal/types"
)

// Body returns |close - open|
func Body(b types.Bar) float64 {
	return math.Abs(b.Close - b.Open)
}

// Range returns the full high - low extent of the candle
func Range(b types.Bar) float64 {
	return math.Abs(b.High - b.Low)
}

// UpperWick returns the distance from the top of the body to the high
func UpperWick(b types.Bar) float64 {
	return b.High - math.Max(b.Open, b.Close)
}

func IsDown(b types.Bar) bool {
	return b.Close < b.Open
}

// IsStrongDown reports a down candle whose body exceeds ratio of its range.
func IsStrongDown(b types.Bar, ratio float64) bool {
	return IsDown(b) && Body(b) > Range(b)*ratio
}

// IsStrong reports an up candle whose body exceeds fraction of its range.
func IsStrong(b types.Bar, fraction float64) bool {
	return b.Close > b.Open && Body(b) > (b.High-b.Low)*fraction
}
