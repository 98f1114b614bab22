package backtest

import (
	"fmt"
	"math"

	"github.com/jwtly10/sniper/internal/strategy"
	"github.com/jwtly10/sniper/internal/types"
)

func validateInput(frames []types.Frame, capital float64) error {
	if !(capital > 0) || math.IsInf(capital, 0) {
		return &InvalidInputError{Index: -1, Reason: fmt.Sprintf("initial capital must be positive, got %v", capital)}
	}

	for i, f := range frames {
		if err := validateBar(f.Bar); err != "" {
			return &InvalidInputError{Index: i, Reason: err}
		}
		if i > 0 && !f.Timestamp.After(frames[i-1].Timestamp) {
			return &InvalidInputError{
				Index:  i,
				Reason: fmt.Sprintf("timestamp %s does not follow %s", f.Timestamp, frames[i-1].Timestamp),
			}
		}
	}
	return nil
}

func validateBar(b types.Bar) string {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if !(p > 0) || math.IsInf(p, 0) {
			return fmt.Sprintf("prices must be positive and finite (o=%v h=%v l=%v c=%v)", b.Open, b.High, b.Low, b.Close)
		}
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Sprintf("high %v is below the body (o=%v c=%v)", b.High, b.Open, b.Close)
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Sprintf("low %v is above the body (o=%v c=%v)", b.Low, b.Open, b.Close)
	}
	if b.Volume < 0 || math.IsNaN(b.Volume) {
		return fmt.Sprintf("volume must be non-negative, got %v", b.Volume)
	}
	return ""
}

// validateIndicators checks every frame from the warm-up onward carries the rule set's fields.
func validateIndicators(frames []types.Frame, rules *strategy.RuleSet) error {
	for i := rules.Warmup; i < len(frames); i++ {
		for _, field := range rules.Required {
			if _, ok := frames[i].Value(field); !ok {
				return &MissingIndicatorError{Index: i, Timestamp: frames[i].Timestamp, Field: field}
			}
		}
	}
	return nil
}
