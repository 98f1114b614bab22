package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// superTrend computes the ATR-banded stop-and-reverse line and its direction.
// The final bands only ratchet in the direction of the trend; the direction flips when
// the close crosses the previous bar's opposite band.
func superTrend(highs, lows, closes []float64, length int, multiplier float64) (line, dir []float64) {
	n := len(closes)
	line, dir = nans(n), nans(n)
	if n <= length {
		return line, dir
	}

	atr := talib.Atr(highs, lows, closes, length)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := length; i < n; i++ {
		hl2 := (highs[i] + lows[i]) / 2
		upper[i] = hl2 + multiplier*atr[i]
		lower[i] = hl2 - multiplier*atr[i]
	}

	d := Bullish
	dir[length] = d
	line[length] = lower[length]
	for i := length + 1; i < n; i++ {
		switch {
		case closes[i] > upper[i-1]:
			d = Bullish
		case closes[i] < lower[i-1]:
			d = Bearish
		}

		if d == Bullish && lower[i] < lower[i-1] {
			lower[i] = lower[i-1]
		}
		if d == Bearish && upper[i] > upper[i-1] {
			upper[i] = upper[i-1]
		}

		dir[i] = d
		if d == Bullish {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}

	indLog.Debug("SuperTrend computed", "length", length, "multiplier", multiplier, "lastDir", dir[n-1], "lastLine", line[n-1])
	return line, dir
}

// ergodicSMI is the SMI ergodic oscillator: a double-smoothed true strength index of the
// close-to-close change, plus an EMA signal line.
func ergodicSMI(closes []float64, fast, slow, signal int) (smi, sig []float64) {
	change := diff(closes)
	absChange := make([]float64, len(change))
	for i, v := range change {
		absChange[i] = math.Abs(v)
	}

	num := emaOf(emaOf(change, slow), fast)
	den := emaOf(emaOf(absChange, slow), fast)

	smi = nans(len(closes))
	for i := range smi {
		if math.IsNaN(num[i]) || math.IsNaN(den[i]) {
			continue
		}
		if den[i] == 0 {
			smi[i] = 0
			continue
		}
		smi[i] = 100 * num[i] / den[i]
	}

	return smi, emaOf(smi, signal)
}
