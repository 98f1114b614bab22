package strategy

import (
	"math"

	"github.com/jwtly10/sniper/internal/types"
)

// Every condition reads indicator values through Frame.Value and is false when a value is missing.

// AboveScaled holds when close >= field * factor.
func AboveScaled(field string, factor float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && c.Frame.Close >= v*factor
	}
}

// BelowScaled holds when close < field * factor.
func BelowScaled(field string, factor float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && c.Frame.Close < v*factor
	}
}

// Below holds when close is strictly below field.
func Below(field string) Condition {
	return BelowScaled(field, 1)
}

// Above holds when close is strictly above field.
func Above(field string) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && c.Frame.Close > v
	}
}

// Positive holds when field > 0.
func Positive(field string) Condition {
	return Greater(field, 0)
}

func Greater(field string, threshold float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && v > threshold
	}
}

func Less(field string, threshold float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && v < threshold
	}
}

// VolumeAbove holds when the bar's volume is strictly above field.
func VolumeAbove(field string) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && c.Frame.Volume > v
	}
}

// Direction holds when the direction flag in field equals want.
func Direction(field string, want float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && v == want
	}
}

// Flat holds when |field| is below threshold.
func Flat(field string, threshold float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(field)
		return ok && math.Abs(v) < threshold
	}
}

// CrossAbove holds when a moved from <= b on the previous frame to > b on this one.
func CrossAbove(a, b string) Condition {
	return crossed(a, b, func(prevDiff, diff float64) bool { return prevDiff <= 0 && diff > 0 })
}

// CrossBelow holds when a moved from >= b on the previous frame to < b on this one.
func CrossBelow(a, b string) Condition {
	return crossed(a, b, func(prevDiff, diff float64) bool { return prevDiff >= 0 && diff < 0 })
}

func crossed(a, b string, test func(prevDiff, diff float64) bool) Condition {
	return func(c *Context) bool {
		if c.Prev == nil {
			return false
		}
		av, ok1 := c.Frame.Value(a)
		bv, ok2 := c.Frame.Value(b)
		pa, ok3 := c.Prev.Value(a)
		pb, ok4 := c.Prev.Value(b)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return false
		}
		return test(pa-pb, av-bv)
	}
}

// WickExhaustion holds when the upper wick is longer than ratio bodies
// (minBody stands in for a zero body) and close is above band * proximity.
func WickExhaustion(band string, ratio, proximity, minBody float64) Condition {
	return func(c *Context) bool {
		b, ok := c.Frame.Value(band)
		if !ok {
			return false
		}
		body := Body(c.Frame.Bar)
		if body == 0 {
			body = minBody
		}
		return UpperWick(c.Frame.Bar) > body*ratio && c.Frame.Close > b*proximity
	}
}

// NearBand holds when close > band * proximity.
func NearBand(band string, proximity float64) Condition {
	return func(c *Context) bool {
		v, ok := c.Frame.Value(band)
		return ok && c.Frame.Close > v*proximity
	}
}

// StreakComplete holds when the named streak's window is full and all true.
func StreakComplete(name string) Condition {
	return func(c *Context) bool {
		return c.Streaks.Complete(name)
	}
}

// Candle lifts a bar classifier into a condition on the current frame.
func Candle(fn func(types.Bar) bool) Condition {
	return func(c *Context) bool {
		return fn(c.Frame.Bar)
	}
}

func Not(cond Condition) Condition {
	return func(c *Context) bool { return !cond(c) }
}

func All(conds ...Condition) Condition {
	return func(c *Context) bool {
		for _, cond := range conds {
			if !cond(c) {
				return false
			}
		}
		return true
	}
}

func Any(conds ...Condition) Condition {
	return func(c *Context) bool {
		for _, cond := range conds {
			if cond(c) {
				return true
			}
		}
		return false
	}
}
