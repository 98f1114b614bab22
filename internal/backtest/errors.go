package backtest

import (
	"fmt"
	"time"
)

// InvalidInputError reports frames or capital that cannot be simulated.
// Index is -1 when the problem is not tied to a frame.
type InvalidInputError struct {
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index < 0 {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input at frame %d: %s", e.Index, e.Reason)
}

// MissingIndicatorError reports a frame past the warm-up that lacks a required indicator.
type MissingIndicatorError struct {
	Index     int
	Timestamp time.Time
	Field     string
}

func (e *MissingIndicatorError) Error() string {
	return fmt.Sprintf("frame %d (%s) is missing required indicator %q", e.Index, e.Timestamp.Format(time.DateOnly), e.Field)
}

// ConfigError wraps a rule set that the engine cannot run.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "invalid rule set: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
