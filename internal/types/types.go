package types

import (
	"math"
	"time"
)

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Frame is a bar annotated with named indicator values.
// An indicator that is undefined for this bar (still in its lookback) is absent from Values.
type Frame struct {
	Bar
	Values map[string]float64
}

func NewFrame(bar Bar) Frame {
	return Frame{Bar: bar, Values: map[string]float64{}}
}

// Value returns the named indicator, or false if it is missing or not finite.
func (f Frame) Value(name string) (float64, bool) {
	v, ok := f.Values[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Set stores v under name. Non-finite values are treated as undefined and not stored.
func (f *Frame) Set(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		delete(f.Values, name)
		return
	}
	if f.Values == nil {
		f.Values = map[string]float64{}
	}
	f.Values[name] = v
}

type Side string

// Trade is a single executed fill. Reason is informational only.
type Trade struct {
	Timestamp time.Time
	Side      Side
	Price     float64
	Reason    string
}
