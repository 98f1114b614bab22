package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jwtly10/sniper/internal/logging"
	"github.com/jwtly10/sniper/internal/types"
)

var indLog = logging.New("indicators")

// Compute annotates every bar with the indicator set described by spec.
// The result has one frame per bar in the same order. Values that are still inside
// an indicator's lookback are left off the frame rather than reported as zero.
func Compute(bars []types.Bar, spec Spec) ([]types.Frame, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	vols := make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i], closes[i], vols[i] = b.High, b.Low, b.Close, b.Volume
	}

	ema := series(n, spec.EMAPeriod-1, func() []float64 { return talib.Ema(closes, spec.EMAPeriod) })
	volSMA := series(n, spec.VolumeSMAPeriod-1, func() []float64 { return talib.Sma(vols, spec.VolumeSMAPeriod) })
	sma := series(n, spec.SMAPeriod-1, func() []float64 { return talib.Sma(closes, spec.SMAPeriod) })
	rsi := series(n, spec.RSIPeriod, func() []float64 { return talib.Rsi(closes, spec.RSIPeriod) })

	upper, middle, lower := nans(n), nans(n), nans(n)
	if n > spec.BBPeriod-1 {
		u, m, l := talib.BBands(closes, spec.BBPeriod, spec.BBStdDev, spec.BBStdDev, talib.SMA)
		upper, middle, lower = mask(u, spec.BBPeriod-1), mask(m, spec.BBPeriod-1), mask(l, spec.BBPeriod-1)
	}

	stLine, stDir := superTrend(highs, lows, closes, spec.STLength, spec.STMultiplier)
	smi, smiSignal := ergodicSMI(closes, spec.SMIFast, spec.SMISlow, spec.SMISignal)

	columns := map[string][]float64{
		EMA:       ema,
		EMASlope:  diff(ema),
		VolumeSMA: volSMA,
		BBUpper:   upper,
		BBMiddle:  middle,
		BBLower:   lower,
		STLine:    stLine,
		STDir:     stDir,
		STSlope:   absDiff(stLine),
		SMA:       sma,
		RSI:       rsi,
		SMI:       smi,
		SMISignal: smiSignal,
	}

	frames := make([]types.Frame, n)
	for i, b := range bars {
		f := types.NewFrame(b)
		for name, col := range columns {
			f.Set(name, col[i])
		}
		frames[i] = f
	}

	indLog.Debug("Computed indicator frames", "bars", n, "columns", len(columns))
	return frames, nil
}

// series runs fn only when there is enough data for its lookback and masks the lookback region.
func series(n, lookback int, fn func() []float64) []float64 {
	if n <= lookback {
		return nans(n)
	}
	return mask(fn(), lookback)
}

// mask marks the first lookback outputs as undefined. talib leaves them as zero.
func mask(values []float64, lookback int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i < lookback {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func diff(values []float64) []float64 {
	out := nans(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

func absDiff(values []float64) []float64 {
	out := diff(values)
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	return out
}

// emaOf applies an EMA to the defined tail of a series that starts with undefined values.
func emaOf(values []float64, period int) []float64 {
	out := nans(len(values))
	start := firstDefined(values)
	if start < 0 || len(values)-start < period {
		return out
	}
	tail := talib.Ema(values[start:], period)
	for i := period - 1; i < len(tail); i++ {
		out[start+i] = tail[i]
	}
	return out
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
