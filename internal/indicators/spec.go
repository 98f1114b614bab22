package indicators

import "fmt"

// Indicator field names carried on every frame.
const (
	EMA       = "ema"
	EMASlope  = "ema_slope"
	VolumeSMA = "vol_sma"
	BBUpper   = "bb_upper"
	BBMiddle  = "bb_middle"
	BBLower   = "bb_lower"
	STLine    = "st_line"
	STDir     = "st_dir"
	STSlope   = "st_slope"
	SMA       = "sma"
	RSI       = "rsi"
	SMI       = "smi"
	SMISignal = "smi_signal"
)

// SuperTrend direction values stored under STDir.
const (
	Bullish = 1.0
	Bearish = -1.0
)

// Spec holds the lookback settings of every indicator the provider computes.
type Spec struct {
	EMAPeriod       int     `yaml:"ema_period"`
	VolumeSMAPeriod int     `yaml:"volume_sma_period"`
	BBPeriod        int     `yaml:"bb_period"`
	BBStdDev        float64 `yaml:"bb_std"`
	STLength        int     `yaml:"supertrend_length"`
	STMultiplier    float64 `yaml:"supertrend_multiplier"`
	SMAPeriod       int     `yaml:"sma_period"`
	RSIPeriod       int     `yaml:"rsi_period"`
	SMIFast         int     `yaml:"smi_fast"`
	SMISlow         int     `yaml:"smi_slow"`
	SMISignal       int     `yaml:"smi_signal"`
}

func DefaultSpec() Spec {
	return Spec{
		EMAPeriod:       50,
		VolumeSMAPeriod: 20,
		BBPeriod:        20,
		BBStdDev:        2,
		STLength:        10,
		STMultiplier:    3,
		SMAPeriod:       20,
		RSIPeriod:       14,
		SMIFast:         5,
		SMISlow:         20,
		SMISignal:       5,
	}
}

func (s Spec) Validate() error {
	periods := map[string]int{
		"ema_period":        s.EMAPeriod,
		"volume_sma_period": s.VolumeSMAPeriod,
		"bb_period":         s.BBPeriod,
		"supertrend_length": s.STLength,
		"sma_period":        s.SMAPeriod,
		"rsi_period":        s.RSIPeriod,
		"smi_fast":          s.SMIFast,
		"smi_slow":          s.SMISlow,
		"smi_signal":        s.SMISignal,
	}
	for name, p := range periods {
		if p < 1 {
			return fmt.Errorf("indicator %s must be >= 1, got %d", name, p)
		}
	}
	if s.BBStdDev <= 0 {
		return fmt.Errorf("indicator bb_std must be > 0, got %v", s.BBStdDev)
	}
	if s.STMultiplier <= 0 {
		return fmt.Errorf("indicator supertrend_multiplier must be > 0, got %v", s.STMultiplier)
	}
	return nil
}
