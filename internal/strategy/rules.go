package strategy

import (
	"errors"
	"fmt"

	"github.com/jwtly10/sniper/internal/account"
	"github.com/jwtly10/sniper/internal/types"
)

// Context is what a condition sees for one frame.
// Prev is nil on the first evaluated frame of a series.
type Context struct {
	Frame   types.Frame
	Prev    *types.Frame
	Streaks *StreakSet
}

// Condition is a single predicate over the current frame.
// Conditions must be pure: the same Context always gives the same answer.
type Condition func(*Context) bool

// Exit is one entry of the ordered exit list. The first exit whose When holds fires.
type Exit struct {
	Name    string
	When    Condition
	Penalty account.PenaltyEffect
}

// RuleSet configures the engine for one strategy variant.
type RuleSet struct {
	Name string
	// Reason recorded on every buy fill
	EntryReason string
	// Indicator fields every frame from Warmup onward must carry
	Required []string
	// Frames before this index are never evaluated for trades
	Warmup int
	// Entry holds when every condition holds
	Entry []Condition
	// PenaltyGate must hold to enter while the penalty flag is set. A nil gate disables hysteresis.
	PenaltyGate Condition
	Exits       []Exit
	Streaks     []StreakSpec
}

// Validate checks the rule set's shape. It does not check any frame data.
func (r *RuleSet) Validate() error {
	if r == nil {
		return errors.New("rule set is nil")
	}
	if len(r.Entry) == 0 {
		return fmt.Errorf("rule set %q has no entry conditions", r.Name)
	}
	for i, c := range r.Entry {
		if c == nil {
			return fmt.Errorf("rule set %q entry condition %d is nil", r.Name, i)
		}
	}
	if len(r.Exits) == 0 {
		return fmt.Errorf("rule set %q has no exits", r.Name)
	}
	for i, e := range r.Exits {
		if e.When == nil {
			return fmt.Errorf("rule set %q exit %d (%s) has no condition", r.Name, i, e.Name)
		}
	}
	if r.Warmup < 0 {
		return fmt.Errorf("rule set %q warmup must be >= 0, got %d", r.Name, r.Warmup)
	}
	for _, s := range r.Streaks {
		if s.Length < 1 {
			return fmt.Errorf("rule set %q streak %q length must be >= 1, got %d", r.Name, s.Name, s.Length)
		}
	}
	return nil
}

// ShouldEnter evaluates the entry conjunction.
func (r *RuleSet) ShouldEnter(ctx *Context) bool {
	for _, c := range r.Entry {
		if !c(ctx) {
			return false
		}
	}
	return true
}

// Gated reports whether an otherwise valid entry must be skipped because of the penalty flag.
func (r *RuleSet) Gated(ctx *Context, penalty bool) bool {
	return penalty && r.PenaltyGate != nil && !r.PenaltyGate(ctx)
}

// FirstExit returns the highest priority exit that holds, if any.
func (r *RuleSet) FirstExit(ctx *Context) (Exit, bool) {
	for _, e := range r.Exits {
		if e.When(ctx) {
			return e, true
		}
	}
	return Exit{}, false
}
