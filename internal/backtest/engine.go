package backtest

import (
	"github.com/jwtly10/sniper/internal/account"
	"github.com/jwtly10/sniper/internal/logging"
	"github.com/jwtly10/sniper/internal/strategy"
	"github.com/jwtly10/sniper/internal/types"
)

var engineLog = logging.New("engine")

// Engine replays indicator frames through a rule set. Each Run owns its own account
// and streak windows, so one Engine may be run concurrently with different rule sets.
type Engine struct {
	Frames         []types.Frame
	initialCapital float64
}

func NewEngine(frames []types.Frame, initialCapital float64) *Engine {
	return &Engine{
		Frames:         frames,
		initialCapital: initialCapital,
	}
}

// Run validates the input and then walks every frame once.
// Any error is returned before a single frame is simulated.
func (e *Engine) Run(rules *strategy.RuleSet) (*Results, error) {
	if err := rules.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	if err := validateInput(e.Frames, e.initialCapital); err != nil {
		return nil, err
	}
	if err := validateIndicators(e.Frames, rules); err != nil {
		return nil, err
	}
	streaks, err := strategy.NewStreakSet(rules.Streaks)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	acc := account.NewAccount(e.initialCapital)
	results := &Results{
		Variant:        rules.Name,
		InitialCapital: e.initialCapital,
	}

	engineLog.Debug("Starting backtest", "variant", rules.Name, "initial_capital", e.initialCapital, "frames", len(e.Frames), "warmup", rules.Warmup)

	for i := range e.Frames {
		frame := e.Frames[i]
		// Streaks see warm-up frames too: the classifications only read OHLC
		streaks.Push(frame.Bar)
		if i < rules.Warmup {
			continue
		}

		ctx := &strategy.Context{Frame: frame, Streaks: streaks}
		if i > 0 {
			ctx.Prev = &e.Frames[i-1]
		}

		if err := e.step(acc, rules, ctx); err != nil {
			return nil, err
		}

		results.Equity = append(results.Equity, EquityPoint{
			Timestamp: frame.Timestamp,
			Equity:    acc.Equity(frame.Close),
			State:     acc.State(),
			Penalty:   acc.Penalty(),
		})
	}

	results.FinalCapital = acc.Capital()
	if pos := acc.Position(); pos != nil {
		last := e.Frames[len(e.Frames)-1]
		results.FinalCapital = acc.Equity(last.Close)
		results.Open = pos
		engineLog.Debug("Marked open position to market", "entry", pos.EntryPrice, "last_close", last.Close, "equity", results.FinalCapital)
	}
	results.Trades = acc.Fills()
	results.RoundTrips = acc.RoundTrips()
	results.Penalty = acc.Penalty()

	engineLog.Debug("Backtest finished", "final_capital", results.FinalCapital, "fills", len(results.Trades))
	return results, nil
}

func (e *Engine) step(acc *account.Account, rules *strategy.RuleSet, ctx *strategy.Context) error {
	bar := ctx.Frame.Bar

	switch acc.State() {
	case account.Flat:
		if !rules.ShouldEnter(ctx) {
			return nil
		}
		if rules.Gated(ctx, acc.Penalty()) {
			engineLog.Debug("Entry skipped in penalty mode", "timestamp", bar.Timestamp, "close", bar.Close)
			return nil
		}
		_, err := acc.Buy(bar.Timestamp, bar.Close, rules.EntryReason)
		return err

	case account.Long:
		exit, ok := rules.FirstExit(ctx)
		if !ok {
			return nil
		}
		_, err := acc.Sell(bar.Timestamp, bar.Close, exit.Name, exit.Penalty)
		return err
	}
	return nil
}
