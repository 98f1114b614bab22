package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwtly10/sniper/internal/indicators"
	"github.com/jwtly10/sniper/internal/types"
)

func frame(o, h, l, c, v float64, values map[string]float64) types.Frame {
	f := types.NewFrame(types.Bar{Open: o, High: h, Low: l, Close: c, Volume: v})
	for k, val := range values {
		f.Set(k, val)
	}
	return f
}

func ctx(f types.Frame) *Context {
	return &Context{Frame: f}
}

func TestCandles(t *testing.T) {
	strongDown := types.Bar{Open: 10, High: 10.2, Low: 8.8, Close: 9}
	weakDown := types.Bar{Open: 10, High: 11, Low: 8, Close: 9.9}
	strongUp := types.Bar{Open: 9, High: 10.1, Low: 8.9, Close: 10}

	assert.InDelta(t, 1.0, Body(strongDown), 1e-9)
	assert.InDelta(t, 1.4, Range(strongDown), 1e-9)
	assert.InDelta(t, 0.2, UpperWick(strongDown), 1e-9)

	assert.True(t, IsStrongDown(strongDown, 0.347))
	assert.True(t, IsDown(weakDown))
	assert.False(t, IsStrongDown(weakDown, 0.347), "body 0.1 of range 3")
	assert.True(t, IsStrong(strongUp, 0.5))
	assert.False(t, IsStrong(strongDown, 0.5), "down candles are never strong")
}

func TestConditions_MissingValuesAreFalse(t *testing.T) {
	c := ctx(frame(10, 11, 9, 10, 100, nil))

	assert.False(t, AboveScaled(indicators.EMA, 1)(c))
	assert.False(t, BelowScaled(indicators.EMA, 1)(c))
	assert.False(t, Positive(indicators.EMASlope)(c))
	assert.False(t, Direction(indicators.STDir, indicators.Bullish)(c))
	assert.False(t, WickExhaustion(indicators.BBUpper, 2.5, 0.98, 0.01)(c))

	nan := ctx(frame(10, 11, 9, 10, 100, map[string]float64{indicators.EMA: math.NaN()}))
	assert.False(t, AboveScaled(indicators.EMA, 1)(nan))
}

func TestConditions_Thresholds(t *testing.T) {
	c := ctx(frame(10, 11, 9, 10.04, 500, map[string]float64{
		indicators.EMA:       10,
		indicators.VolumeSMA: 400,
		indicators.STSlope:   0.005,
	}))

	assert.True(t, AboveScaled(indicators.EMA, 1.0033)(c))
	assert.False(t, AboveScaled(indicators.EMA, 1.005)(c))
	assert.True(t, VolumeAbove(indicators.VolumeSMA)(c))
	assert.True(t, Flat(indicators.STSlope, 0.01)(c))
	assert.False(t, Below(indicators.EMA)(c))
	assert.True(t, Above(indicators.EMA)(c))

	onLine := ctx(frame(10, 11, 9, 10, 1, map[string]float64{indicators.SMA: 10}))
	assert.False(t, Below(indicators.SMA)(onLine), "strict inequality")
	assert.True(t, AboveScaled(indicators.SMA, 1)(onLine), "close equal to the scaled baseline enters")
}

func TestConditions_WickExhaustionZeroBody(t *testing.T) {
	// doji: body 0 is floored at 0.01, so a wick of 0.03 exceeds 0.01 * 2.5
	doji := ctx(frame(10, 10.03, 9.99, 10, 1, map[string]float64{indicators.BBUpper: 10.1}))
	assert.True(t, WickExhaustion(indicators.BBUpper, 2.5, 0.98, 0.01)(doji))

	farFromBand := ctx(frame(10, 10.03, 9.99, 10, 1, map[string]float64{indicators.BBUpper: 12}))
	assert.False(t, WickExhaustion(indicators.BBUpper, 2.5, 0.98, 0.01)(farFromBand))
}

func TestConditions_Crossovers(t *testing.T) {
	prev := frame(1, 1, 1, 1, 1, map[string]float64{indicators.SMI: -5, indicators.SMISignal: 0})
	cur := frame(1, 1, 1, 1, 1, map[string]float64{indicators.SMI: 5, indicators.SMISignal: 0})

	up := &Context{Frame: cur, Prev: &prev}
	assert.True(t, CrossAbove(indicators.SMI, indicators.SMISignal)(up))
	assert.False(t, CrossBelow(indicators.SMI, indicators.SMISignal)(up))

	down := &Context{Frame: prev, Prev: &cur}
	assert.True(t, CrossBelow(indicators.SMI, indicators.SMISignal)(down))

	assert.False(t, CrossAbove(indicators.SMI, indicators.SMISignal)(ctx(cur)), "no previous frame")
}

func TestConditions_Combinators(t *testing.T) {
	yes := func(*Context) bool { return true }
	no := func(*Context) bool { return false }
	c := ctx(types.NewFrame(types.Bar{}))

	assert.True(t, All(yes, yes)(c))
	assert.False(t, All(yes, no)(c))
	assert.True(t, Any(no, yes)(c))
	assert.False(t, Any(no, no)(c))
	assert.True(t, Not(no)(c))
}
