package strategy

import (
	"fmt"

	"github.com/jwtly10/sniper/internal/indicators"
)

var builders = map[string]func(Params, indicators.Spec) *RuleSet{
	Sniper:     NewSniper,
	Breakout:   NewBreakout,
	SuperTrend: NewSuperTrend,
	Momentum:   NewMomentum,
}

// Variants lists the known rule set names in a stable order.
func Variants() []string {
	return []string{Sniper, Breakout, SuperTrend, Momentum}
}

// New builds the named rule set after validating params and spec.
func New(name string, p Params, spec indicators.Spec) (*RuleSet, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy variant %q (known: %v)", name, Variants())
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params for %s: %w", name, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicator spec for %s: %w", name, err)
	}
	rules := build(p, spec)
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}
