package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/jwtly10/sniper/internal/account"
	"github.com/jwtly10/sniper/internal/types"
)

// EquityPoint is the marked-to-market account value after an evaluated frame.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
	State     account.State
	Penalty   bool
}

type Results struct {
	Variant        string
	InitialCapital float64
	// Capital after the last frame. An open position is valued at the last close.
	FinalCapital float64
	// Buy/Sell fills in execution order
	Trades     []types.Trade
	RoundTrips []account.RoundTrip
	// Position still held after the last frame, if any
	Open    *account.Position
	Penalty bool
	Equity  []EquityPoint

	stats *Statistics
}

// ROI returns the percentage return on the initial capital.
func (r *Results) ROI() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return (r.FinalCapital - r.InitialCapital) / r.InitialCapital * 100
}

func (r *Results) PrintTrades(w io.Writer) {
	fmt.Fprintln(w, "\n=== Trade List ===")
	for _, rt := range r.RoundTrips {
		fmt.Fprintln(w, rt.Print())
	}
	if r.Open != nil {
		fmt.Fprintf(w, "#%d | LONG | Entry: %.4f @ %s | open\n", r.Open.ID, r.Open.EntryPrice, r.Open.OpenTime.Format(time.DateOnly))
	}
}
