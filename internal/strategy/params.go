package strategy

import "fmt"

// Params are the tunable thresholds shared by every rule set variant.
type Params struct {
	// Close must be at least baseline * BuyTolerance to enter
	BuyTolerance float64 `yaml:"buy_tolerance"`
	// Close below baseline * StopTolerance ends the trend
	StopTolerance float64 `yaml:"stop_tolerance"`
	// Upper wick / body ratio that signals exhaustion
	WickBodyRatio float64 `yaml:"wick_body_ratio"`
	// Close above band * BandProximity counts as "at the band"
	BandProximity float64 `yaml:"band_proximity"`
	// Minimum body / range for a strong down candle
	BodyRatioThreshold float64 `yaml:"body_ratio_threshold"`
	// Minimum body / range for a strong up candle (penalty gate)
	StrongBodyFraction float64 `yaml:"strong_body_fraction"`
	// |trend line first difference| below this is a flat trend line
	FlatnessThreshold float64 `yaml:"flatness_threshold"`
	// Body length used for the wick ratio when the body is exactly zero
	MinBody float64 `yaml:"min_body"`

	PrecisionStreak int `yaml:"precision_streak"`
	HardStreak      int `yaml:"hard_streak"`

	// Warmup overrides the frame count skipped before evaluation. Zero derives it from the indicator spec.
	Warmup int `yaml:"warmup"`

	SMIOverbought float64 `yaml:"smi_overbought"`
	RSICeiling    float64 `yaml:"rsi_ceiling"`
}

func DefaultParams() Params {
	return Params{
		BuyTolerance:       1.0033,
		StopTolerance:      0.988,
		WickBodyRatio:      2.5,
		BandProximity:      0.98,
		BodyRatioThreshold: 0.347,
		StrongBodyFraction: 0.5,
		FlatnessThreshold:  0.01,
		MinBody:            0.01,
		PrecisionStreak:    4,
		HardStreak:         5,
		SMIOverbought:      40,
		RSICeiling:         70,
	}
}

func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"buy_tolerance", p.BuyTolerance},
		{"stop_tolerance", p.StopTolerance},
		{"wick_body_ratio", p.WickBodyRatio},
		{"band_proximity", p.BandProximity},
		{"body_ratio_threshold", p.BodyRatioThreshold},
		{"strong_body_fraction", p.StrongBodyFraction},
		{"min_body", p.MinBody},
	}
	for _, f := range positive {
		if f.v <= 0 {
			return fmt.Errorf("strategy %s must be > 0, got %v", f.name, f.v)
		}
	}
	if p.FlatnessThreshold < 0 {
		return fmt.Errorf("strategy flatness_threshold must be >= 0, got %v", p.FlatnessThreshold)
	}
	if p.PrecisionStreak < 1 {
		return fmt.Errorf("strategy precision_streak must be >= 1, got %d", p.PrecisionStreak)
	}
	if p.HardStreak <= p.PrecisionStreak {
		return fmt.Errorf("strategy hard_streak (%d) must be longer than precision_streak (%d)", p.HardStreak, p.PrecisionStreak)
	}
	if p.Warmup < 0 {
		return fmt.Errorf("strategy warmup must be >= 0, got %d", p.Warmup)
	}
	return nil
}
