package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwtly10/sniper/internal/account"
	"github.com/jwtly10/sniper/internal/indicators"
	"github.com/jwtly10/sniper/internal/strategy"
	"github.com/jwtly10/sniper/internal/types"
)

var start = TimeFromString("2024-01-01T00:00:00Z")

func TimeFromString(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayOf(ts time.Time) int {
	return int(ts.Sub(start).Hours() / 24)
}

func bar(day int, o, h, l, c, v float64) types.Bar {
	return types.Bar{Timestamp: start.AddDate(0, 0, day), Open: o, High: h, Low: l, Close: c, Volume: v}
}

// closes builds flat-ish bars with the given closes and no indicator values.
func closes(values ...float64) []types.Frame {
	frames := make([]types.Frame, len(values))
	for i, c := range values {
		frames[i] = types.NewFrame(bar(i, c, c, c, c, 100))
	}
	return frames
}

// on holds on the listed day indexes only.
func on(days ...int) strategy.Condition {
	return func(c *strategy.Context) bool {
		d := dayOf(c.Frame.Timestamp)
		for _, want := range days {
			if d == want {
				return true
			}
		}
		return false
	}
}

func scripted(entries, exits []int) *strategy.RuleSet {
	return &strategy.RuleSet{
		Name:  "scripted",
		Entry: []strategy.Condition{on(entries...)},
		Exits: []strategy.Exit{{Name: "scripted exit", When: on(exits...)}},
	}
}

type sniperValues struct {
	ema, bbUpper, dir float64
}

var calm = sniperValues{ema: 100, bbUpper: 120, dir: indicators.Bullish}

func sniperFrame(b types.Bar, v sniperValues) types.Frame {
	f := types.NewFrame(b)
	f.Set(indicators.EMA, v.ema)
	f.Set(indicators.EMASlope, 0.5)
	f.Set(indicators.VolumeSMA, 1000)
	f.Set(indicators.BBUpper, v.bbUpper)
	f.Set(indicators.STDir, v.dir)
	f.Set(indicators.STSlope, 0.5)
	return f
}

func sniperRules(t *testing.T) *strategy.RuleSet {
	p := strategy.DefaultParams()
	p.Warmup = 1
	rules, err := strategy.New(strategy.Sniper, p, indicators.DefaultSpec())
	require.NoError(t, err)
	return rules
}

// Candle shapes used by the sniper scenarios. All close well above ema*0.988 with bb_upper at 120.
func warmupBar(day int) types.Bar   { return bar(day, 99, 101, 98.5, 100, 500) }
func strongEntry(day int) types.Bar { return bar(day, 100, 106, 99.5, 105, 2000) }
func weakEntry(day int) types.Bar   { return bar(day, 104.5, 106, 103, 105, 2000) }
func quietUp(day int) types.Bar     { return bar(day, 104, 106, 103.5, 105.5, 500) }
func strongRed(day int) types.Bar   { return bar(day, 106, 106.2, 104.8, 105, 500) }
func weakRed(day int) types.Bar     { return bar(day, 105.5, 106.5, 104, 105.2, 500) }

func run(t *testing.T, frames []types.Frame, capital float64, rules *strategy.RuleSet) *Results {
	t.Helper()
	results, err := NewEngine(frames, capital).Run(rules)
	require.NoError(t, err)
	return results
}

func TestEngine_RoundTripConservesCapital(t *testing.T) {
	frames := closes(100, 80, 120, 90, 45, 60)
	results := run(t, frames, 10000, scripted([]int{0, 3}, []int{2, 5}))

	require.Len(t, results.Trades, 4)
	require.Len(t, results.RoundTrips, 2)

	after1 := 10000 * 120.0 / 100.0
	assert.InDelta(t, after1, results.RoundTrips[0].CapitalOut, 1e-9)
	assert.InDelta(t, after1*60.0/90.0, results.FinalCapital, 1e-9)
	assert.Nil(t, results.Open)
}

func TestEngine_TradesAlternateAndStateIsExclusive(t *testing.T) {
	frames := closes(10, 11, 12, 13, 12, 11, 10, 11, 12, 13)
	// entry and exit conditions hold on overlapping days; state decides which is evaluated
	results := run(t, frames, 1000, scripted([]int{1, 2, 3, 6, 7, 9}, []int{2, 3, 4, 8}))

	require.NotEmpty(t, results.Trades)
	for i, trade := range results.Trades {
		want := types.BUY
		if i%2 == 1 {
			want = types.SELL
		}
		assert.Equal(t, want, trade.Side, "fill %d", i)
	}

	// replay the fills against the equity curve: Long exactly when an odd number of fills has happened
	filled := 0
	for _, point := range results.Equity {
		for filled < len(results.Trades) && !results.Trades[filled].Timestamp.After(point.Timestamp) {
			filled++
		}
		if filled%2 == 1 {
			assert.Equal(t, account.Long, point.State, point.Timestamp)
		} else {
			assert.Equal(t, account.Flat, point.State, point.Timestamp)
		}
	}

	assert.Equal(t, len(results.Trades)%2 == 1, results.Open != nil, "an unmatched buy only when the run ends long")
}

func TestEngine_MarkToMarketAtEnd(t *testing.T) {
	frames := closes(100, 110, 130)
	results := run(t, frames, 5000, scripted([]int{0}, nil))

	require.Len(t, results.Trades, 1, "no synthetic sell")
	assert.Equal(t, types.BUY, results.Trades[0].Side)
	require.NotNil(t, results.Open)
	assert.InDelta(t, results.Open.Quantity*130, results.FinalCapital, 1e-9)
	assert.InDelta(t, 5000*1.3, results.FinalCapital, 1e-9)
	assert.Empty(t, results.RoundTrips)
}

func TestEngine_WarmupFramesNeverTrade(t *testing.T) {
	rules := scripted([]int{0, 1, 2, 3}, nil)
	rules.Warmup = 3

	results := run(t, closes(10, 11, 12, 13, 14), 100, rules)

	require.Len(t, results.Trades, 1)
	assert.Equal(t, 3, dayOf(results.Trades[0].Timestamp))
	assert.Len(t, results.Equity, 2, "only evaluated frames are on the equity curve")
}

func TestEngine_Deterministic(t *testing.T) {
	frames := []types.Frame{
		sniperFrame(warmupBar(0), calm),
		sniperFrame(strongEntry(1), calm),
		sniperFrame(quietUp(2), calm),
		sniperFrame(bar(3, 104, 110, 103.5, 105, 500), sniperValues{ema: 100, bbUpper: 106, dir: indicators.Bullish}),
		sniperFrame(weakEntry(4), calm),
		sniperFrame(strongEntry(5), calm),
		sniperFrame(quietUp(6), sniperValues{ema: 100, bbUpper: 120, dir: indicators.Bearish}),
	}

	first := run(t, frames, 10000, sniperRules(t))
	second := run(t, frames, 10000, sniperRules(t))

	assert.Equal(t, first.FinalCapital, second.FinalCapital)
	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.Equity, second.Equity)
}

func TestEngine_TrendEndTakesPriorityOverWick(t *testing.T) {
	rules := sniperRules(t)
	frames := []types.Frame{
		sniperFrame(warmupBar(0), calm),
		sniperFrame(strongEntry(1), calm),
		// close 105 < 110*0.988 and the 5.0 wick over a 1.0 body sits above 100*0.98: both exits hold
		sniperFrame(bar(2, 104, 110, 103.5, 105, 500), sniperValues{ema: 110, bbUpper: 100, dir: indicators.Bullish}),
	}

	results := run(t, frames, 10000, rules)

	require.Len(t, results.RoundTrips, 1)
	assert.Equal(t, strategy.ExitTrendEnd, results.RoundTrips[0].ExitReason)
	assert.False(t, results.Penalty, "trend end clears the penalty")
}

func TestEngine_PenaltyGatesWeakReentry(t *testing.T) {
	rules := sniperRules(t)
	frames := []types.Frame{
		sniperFrame(warmupBar(0), calm),
		sniperFrame(strongEntry(1), calm),
		// exhaustion wick near the band
		sniperFrame(bar(2, 104, 110, 103.5, 105, 500), sniperValues{ema: 100, bbUpper: 106, dir: indicators.Bullish}),
		sniperFrame(weakEntry(3), calm),
		sniperFrame(strongEntry(4), calm),
	}

	results := run(t, frames, 10000, rules)

	require.Len(t, results.Trades, 3)
	assert.Equal(t, strategy.ExitWickExhaustion, results.Trades[1].Reason)

	gated := results.Equity[2]
	assert.Equal(t, 3, dayOf(gated.Timestamp))
	assert.Equal(t, account.Flat, gated.State, "weak candle does not re-enter")
	assert.True(t, gated.Penalty, "skipped entry leaves the penalty set")

	assert.Equal(t, types.BUY, results.Trades[2].Side)
	assert.Equal(t, 4, dayOf(results.Trades[2].Timestamp))
	assert.False(t, results.Penalty, "strong re-entry clears the penalty")
}

func TestEngine_WeakEntryAllowedWithoutPenalty(t *testing.T) {
	frames := []types.Frame{
		sniperFrame(warmupBar(0), calm),
		sniperFrame(weakEntry(1), calm),
	}
	results := run(t, frames, 10000, sniperRules(t))
	require.Len(t, results.Trades, 1)
	assert.Contains(t, results.Trades[0].Reason, "Breakout confirmed")
}

func TestEngine_PrecisionStreakBoundary(t *testing.T) {
	rules := sniperRules(t)
	frames := []types.Frame{
		sniperFrame(warmupBar(0), calm),
		sniperFrame(strongEntry(1), calm),
		sniperFrame(strongRed(2), calm),
		sniperFrame(strongRed(3), calm),
		sniperFrame(strongRed(4), calm),
		sniperFrame(strongRed(5), calm),
	}

	// three strong red candles are not enough
	results := run(t, frames[:5], 10000, rules)
	assert.Empty(t, results.RoundTrips)
	assert.NotNil(t, results.Open)

	results = run(t, frames, 10000, rules)
	require.Len(t, results.RoundTrips, 1)
	assert.Equal(t, 5, dayOf(results.RoundTrips[0].ExitTime))
	assert.Equal(t, rules.Exits[2].Name, results.RoundTrips[0].ExitReason)
	assert.True(t, results.Penalty)
}

func TestEngine_HardStreakOnWeakRedCandles(t *testing.T) {
	rules := sniperRules(t)
	frames := []types.Frame{
		sniperFrame(warmupBar(0), calm),
		sniperFrame(strongEntry(1), calm),
	}
	for d := 2; d <= 6; d++ {
		frames = append(frames, sniperFrame(weakRed(d), calm))
	}

	results := run(t, frames, 10000, rules)

	require.Len(t, results.RoundTrips, 1)
	assert.Equal(t, 6, dayOf(results.RoundTrips[0].ExitTime))
	assert.Equal(t, rules.Exits[3].Name, results.RoundTrips[0].ExitReason)
	assert.True(t, results.Penalty)
}

func TestEngine_StreaksIncludeWarmupFrames(t *testing.T) {
	rules := scripted([]int{2}, nil)
	rules.Warmup = 2
	rules.Streaks = []strategy.StreakSpec{{Name: strategy.StreakDown, Length: 3, Classify: strategy.IsDown}}
	rules.Exits = []strategy.Exit{{Name: "three down", When: strategy.StreakComplete(strategy.StreakDown)}}

	frames := []types.Frame{
		types.NewFrame(bar(0, 10, 10, 9, 9.5, 1)),
		types.NewFrame(bar(1, 9.5, 9.5, 9, 9.2, 1)),
		types.NewFrame(bar(2, 9.2, 9.2, 8.5, 9, 1)),
		types.NewFrame(bar(3, 9, 9, 8, 8.5, 1)),
	}

	results := run(t, frames, 100, rules)
	require.Len(t, results.RoundTrips, 1)
	assert.Equal(t, 3, dayOf(results.RoundTrips[0].ExitTime))
}

func TestEngine_MomentumStrictSMAExit(t *testing.T) {
	p := strategy.DefaultParams()
	p.Warmup = 1
	rules, err := strategy.New(strategy.Momentum, p, indicators.DefaultSpec())
	require.NoError(t, err)

	mk := func(b types.Bar, smi, sma float64) types.Frame {
		f := types.NewFrame(b)
		f.Set(indicators.EMA, 100)
		f.Set(indicators.SMA, sma)
		f.Set(indicators.STDir, indicators.Bullish)
		f.Set(indicators.RSI, 55)
		f.Set(indicators.SMI, smi)
		f.Set(indicators.SMISignal, 0)
		return f
	}
	frames := []types.Frame{
		mk(bar(0, 100, 101, 99, 100, 1), -5, 95),
		mk(bar(1, 100, 106, 100, 105, 1), 5, 95),
		mk(bar(2, 105, 105, 99, 100, 1), 6, 100),
		mk(bar(3, 100, 100, 99, 99.9, 1), 7, 100),
	}

	results := run(t, frames, 1000, rules)

	require.Len(t, results.RoundTrips, 1)
	assert.Equal(t, 1, dayOf(results.RoundTrips[0].EntryTime))
	assert.Equal(t, 3, dayOf(results.RoundTrips[0].ExitTime), "close equal to the SMA does not exit")
	assert.Equal(t, strategy.ExitBelowSMA, results.RoundTrips[0].ExitReason)
}

func TestEngine_InvalidInput(t *testing.T) {
	rules := scripted([]int{0}, nil)

	tests := []struct {
		name    string
		frames  []types.Frame
		capital float64
		index   int
	}{
		{"zero capital", closes(1, 2), 0, -1},
		{"negative capital", closes(1, 2), -10, -1},
		{"repeated timestamp", []types.Frame{types.NewFrame(bar(0, 1, 1, 1, 1, 1)), types.NewFrame(bar(0, 1, 1, 1, 1, 1))}, 100, 1},
		{"high below close", []types.Frame{types.NewFrame(bar(0, 1, 1, 1, 2, 1))}, 100, 0},
		{"low above open", []types.Frame{types.NewFrame(bar(0, 1, 3, 2, 2.5, 1))}, 100, 0},
		{"zero price", []types.Frame{types.NewFrame(bar(0, 0, 1, 0, 1, 1))}, 100, 0},
		{"negative volume", []types.Frame{types.NewFrame(bar(0, 1, 1, 1, 1, -1))}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := NewEngine(tt.frames, tt.capital).Run(rules)
			assert.Nil(t, results, "no partial output")

			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tt.index, invalid.Index)
		})
	}
}

func TestEngine_MissingIndicator(t *testing.T) {
	rules := sniperRules(t)
	frames := []types.Frame{
		types.NewFrame(warmupBar(0)), // warm-up frames may be bare
		sniperFrame(strongEntry(1), calm),
		sniperFrame(quietUp(2), calm),
	}
	delete(frames[2].Values, indicators.BBUpper)

	results, err := NewEngine(frames, 1000).Run(rules)
	assert.Nil(t, results)

	var missing *MissingIndicatorError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, 2, missing.Index)
	assert.Equal(t, indicators.BBUpper, missing.Field)
}

func TestEngine_ConfigErrors(t *testing.T) {
	_, err := NewEngine(closes(1), 100).Run(nil)
	var cfg *ConfigError
	assert.True(t, errors.As(err, &cfg))

	rules := scripted([]int{0}, nil)
	rules.Streaks = []strategy.StreakSpec{{Name: "x", Length: 0, Classify: strategy.IsDown}}
	_, err = NewEngine(closes(1), 100).Run(rules)
	assert.True(t, errors.As(err, &cfg))
}

func TestEngine_NoFrames(t *testing.T) {
	results := run(t, nil, 250, scripted([]int{0}, nil))
	assert.Equal(t, 250.0, results.FinalCapital)
	assert.Empty(t, results.Trades)
}
