package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jwtly10/sniper/internal/account"
)

type Statistics struct {
	// Basic
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	OpenPosition  bool

	// P&L
	TotalPnL        float64
	TotalPnLPercent float64
	GrossProfit     float64
	GrossLoss       float64
	ProfitFactor    float64

	// Averages
	AvgWin        float64
	AvgLoss       float64
	ExpectedValue float64

	// Risk
	MaxDrawdown        float64
	MaxDrawdownPercent float64

	// Exposure
	AvgTradeDuration time.Duration
	TimeInMarket     float64

	// Exit reason -> count
	ExitReasons map[string]int
}

func (r *Results) Calculate() *Statistics {
	// Return cached if already calculated
	if r.stats != nil {
		return r.stats
	}

	stats := &Statistics{
		TotalTrades:  len(r.RoundTrips),
		OpenPosition: r.Open != nil,
		ExitReasons:  map[string]int{},
	}
	stats.TotalPnL = r.FinalCapital - r.InitialCapital
	stats.TotalPnLPercent = r.ROI()
	stats.MaxDrawdown, stats.MaxDrawdownPercent = maxDrawdown(r.InitialCapital, r.Equity)
	stats.TimeInMarket = timeInMarket(r.Equity)

	if len(r.RoundTrips) == 0 {
		r.stats = stats
		return stats
	}

	var totalWin, totalLoss float64
	var totalDuration time.Duration

	for _, trade := range r.RoundTrips {
		if trade.PnL > 0 {
			stats.WinningTrades++
			totalWin += trade.PnL
		} else if trade.PnL < 0 {
			stats.LosingTrades++
			totalLoss += trade.PnL // Already negative
		}
		stats.ExitReasons[trade.ExitReason]++
		totalDuration += trade.ExitTime.Sub(trade.EntryTime)
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	stats.GrossProfit = totalWin
	stats.GrossLoss = totalLoss

	if totalLoss != 0 {
		stats.ProfitFactor = totalWin / -totalLoss
	}

	if stats.WinningTrades > 0 {
		stats.AvgWin = totalWin / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = totalLoss / float64(stats.LosingTrades)
	}
	stats.ExpectedValue = (totalWin + totalLoss) / float64(stats.TotalTrades)
	stats.AvgTradeDuration = totalDuration / time.Duration(stats.TotalTrades)

	r.stats = stats
	return stats
}

// maxDrawdown walks the equity curve from the initial capital and returns the deepest
// peak-to-trough fall, absolute and as a percentage of that peak.
func maxDrawdown(initial float64, curve []EquityPoint) (float64, float64) {
	peak := initial
	var maxDD, maxPct float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		dd := peak - p.Equity
		if dd > maxDD {
			maxDD = dd
			if peak > 0 {
				maxPct = dd / peak * 100
			}
		}
	}
	return maxDD, maxPct
}

func timeInMarket(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	long := 0
	for _, p := range curve {
		if p.State == account.Long {
			long++
		}
	}
	return float64(long) / float64(len(curve)) * 100
}

func (s *Statistics) Print(w io.Writer) {
	fmt.Fprintln(w, "\n=== Backtest Results ===")
	fmt.Fprintf(w, "Total Trades:     %d\n", s.TotalTrades)
	fmt.Fprintf(w, "Winning Trades:   %d (%.2f%%)\n", s.WinningTrades, s.WinRate)
	fmt.Fprintf(w, "Losing Trades:    %d\n", s.LosingTrades)
	if s.OpenPosition {
		fmt.Fprintln(w, "Open Position:    yes (marked to market)")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total P&L:        %.2f (%.2f%%)\n", s.TotalPnL, s.TotalPnLPercent)
	fmt.Fprintf(w, "Gross Profit:     %.2f\n", s.GrossProfit)
	fmt.Fprintf(w, "Gross Loss:       %.2f\n", s.GrossLoss)
	fmt.Fprintf(w, "Profit Factor:    %.2f\n\n", s.ProfitFactor)

	fmt.Fprintf(w, "Avg Win:          %.2f\n", s.AvgWin)
	fmt.Fprintf(w, "Avg Loss:         %.2f\n", s.AvgLoss)
	fmt.Fprintf(w, "Expected Value:   %.2f per trade\n\n", s.ExpectedValue)

	fmt.Fprintf(w, "Max Drawdown:     %.2f (%.2f%%)\n", s.MaxDrawdown, s.MaxDrawdownPercent)
	fmt.Fprintf(w, "Avg Duration:     %s\n", s.AvgTradeDuration.Round(time.Hour))
	fmt.Fprintf(w, "Time in Market:   %.2f%%\n", s.TimeInMarket)

	if len(s.ExitReasons) > 0 {
		fmt.Fprintln(w, "\nExits:")
		reasons := make([]string, 0, len(s.ExitReasons))
		for reason := range s.ExitReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "  %-50s %d\n", reason, s.ExitReasons[reason])
		}
	}
}
