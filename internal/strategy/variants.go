package strategy

import (
	"fmt"

	"github.com/jwtly10/sniper/internal/account"
	"github.com/jwtly10/sniper/internal/indicators"
	"github.com/jwtly10/sniper/internal/types"
)

const (
	Sniper     = "sniper"
	Breakout   = "breakout"
	SuperTrend = "supertrend"
	Momentum   = "momentum"
)

// Streak names used by the candle-streak exits.
const (
	StreakStrongDown = "strong_down"
	StreakDown       = "down"
)

// Exit names recorded as the sell reason.
const (
	ExitTrendEnd       = "Trend ended (EMA/SuperTrend)"
	ExitWickExhaustion = "Peak wick exhaustion"
	ExitBearishFlip    = "SuperTrend turned bearish"
	ExitBelowSMA       = "Close below SMA"
	ExitSMIRollover    = "SMI crossed below signal while overbought"
)

var breakoutRequired = []string{
	indicators.EMA,
	indicators.EMASlope,
	indicators.VolumeSMA,
	indicators.BBUpper,
	indicators.STDir,
	indicators.STSlope,
}

// breakoutEntry is the shared entry conjunction of the sniper and breakout variants.
func breakoutEntry(p Params) []Condition {
	return []Condition{
		AboveScaled(indicators.EMA, p.BuyTolerance),
		Positive(indicators.EMASlope),
		VolumeAbove(indicators.VolumeSMA),
		All(
			Direction(indicators.STDir, indicators.Bullish),
			Not(All(
				Flat(indicators.STSlope, p.FlatnessThreshold),
				NearBand(indicators.BBUpper, p.BandProximity),
			)),
		),
	}
}

func trendEnd(p Params) Exit {
	return Exit{
		Name: ExitTrendEnd,
		When: Any(
			BelowScaled(indicators.EMA, p.StopTolerance),
			Direction(indicators.STDir, indicators.Bearish),
		),
		Penalty: account.PenaltyClear,
	}
}

func breakoutWarmup(p Params, spec indicators.Spec) int {
	if p.Warmup > 0 {
		return p.Warmup
	}
	// ema_slope needs one frame past the EMA lookback
	return maxInt(spec.EMAPeriod+1, spec.STLength+1, spec.BBPeriod, spec.VolumeSMAPeriod)
}

func entryReason(p Params) string {
	return fmt.Sprintf("Breakout confirmed (tolerance %.4f)", p.BuyTolerance)
}

// NewSniper builds the full rule set: breakout entry, four ordered exits and penalty hysteresis.
func NewSniper(p Params, spec indicators.Spec) *RuleSet {
	ratio, body := p.BodyRatioThreshold, p.StrongBodyFraction
	return &RuleSet{
		Name:        Sniper,
		EntryReason: entryReason(p),
		Required:    breakoutRequired,
		Warmup:      breakoutWarmup(p, spec),
		Entry:       breakoutEntry(p),
		PenaltyGate: Candle(func(b types.Bar) bool { return IsStrong(b, body) }),
		Exits: []Exit{
			trendEnd(p),
			{
				Name:    ExitWickExhaustion,
				When:    WickExhaustion(indicators.BBUpper, p.WickBodyRatio, p.BandProximity, p.MinBody),
				Penalty: account.PenaltySet,
			},
			{
				Name:    fmt.Sprintf("Precision exit (%d strong red candles, body > %.1f%%)", p.PrecisionStreak, p.BodyRatioThreshold*100),
				When:    StreakComplete(StreakStrongDown),
				Penalty: account.PenaltySet,
			},
			{
				Name:    fmt.Sprintf("Hard exit (%d red candles)", p.HardStreak),
				When:    StreakComplete(StreakDown),
				Penalty: account.PenaltySet,
			},
		},
		Streaks: []StreakSpec{
			{
				Name:     StreakStrongDown,
				Length:   p.PrecisionStreak,
				Classify: func(b types.Bar) bool { return IsStrongDown(b, ratio) },
			},
			{Name: StreakDown, Length: p.HardStreak, Classify: IsDown},
		},
	}
}

// NewBreakout is the sniper entry with only the trend-end exit.
func NewBreakout(p Params, spec indicators.Spec) *RuleSet {
	return &RuleSet{
		Name:        Breakout,
		EntryReason: entryReason(p),
		Required:    breakoutRequired,
		Warmup:      breakoutWarmup(p, spec),
		Entry:       breakoutEntry(p),
		Exits:       []Exit{trendEnd(p)},
	}
}

// NewSuperTrend follows SuperTrend direction flips.
func NewSuperTrend(p Params, spec indicators.Spec) *RuleSet {
	warmup := p.Warmup
	if warmup == 0 {
		warmup = spec.STLength + 1
	}
	return &RuleSet{
		Name:        SuperTrend,
		EntryReason: "SuperTrend bullish",
		Required:    []string{indicators.STDir},
		Warmup:      warmup,
		Entry:       []Condition{Direction(indicators.STDir, indicators.Bullish)},
		Exits: []Exit{{
			Name:    ExitBearishFlip,
			When:    Direction(indicators.STDir, indicators.Bearish),
			Penalty: account.PenaltyKeep,
		}},
	}
}

// NewMomentum enters on an SMI crossover inside an uptrend and exits on trend or momentum loss.
func NewMomentum(p Params, spec indicators.Spec) *RuleSet {
	warmup := p.Warmup
	if warmup == 0 {
		// smi_signal is first defined at slow+fast+signal-2; crossovers also read the previous frame
		smiReady := spec.SMISlow + spec.SMIFast + spec.SMISignal - 2
		warmup = maxInt(spec.EMAPeriod, spec.SMAPeriod, spec.RSIPeriod+1, spec.STLength+1, smiReady+1)
	}
	return &RuleSet{
		Name:        Momentum,
		EntryReason: "SMI crossed above signal",
		Required: []string{
			indicators.EMA,
			indicators.SMA,
			indicators.STDir,
			indicators.RSI,
			indicators.SMI,
			indicators.SMISignal,
		},
		Warmup: warmup,
		Entry: []Condition{
			CrossAbove(indicators.SMI, indicators.SMISignal),
			Above(indicators.EMA),
			Direction(indicators.STDir, indicators.Bullish),
			Less(indicators.RSI, p.RSICeiling),
		},
		Exits: []Exit{
			{Name: ExitBearishFlip, When: Direction(indicators.STDir, indicators.Bearish)},
			{Name: ExitBelowSMA, When: Below(indicators.SMA)},
			{
				Name: ExitSMIRollover,
				When: All(
					CrossBelow(indicators.SMI, indicators.SMISignal),
					Greater(indicators.SMI, p.SMIOverbought),
				),
			},
		},
	}
}

func maxInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v > m {
			m = v
		}
	}
	return m
}
