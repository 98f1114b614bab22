package tradingview

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jwtly10/sniper/internal/account"
)

// WritePineScript writes the markers for a run to path.
func WritePineScript(path, symbol string, trips []account.RoundTrip, open *account.Position) error {
	pineCode := GeneratePineScript(symbol, trips, open)
	if err := os.WriteFile(path, []byte(pineCode), 0o644); err != nil {
		return fmt.Errorf("failed to write pine script to %s: %w", path, err)
	}
	return nil
}

// GeneratePineScript generates Pine Script code that marks every buy and sell of a run on a chart.
// Buys are labels below the bar. Sells are labels above it, red when the exit put the strategy in
// penalty mode and green otherwise. An open position only gets its entry marker.
func GeneratePineScript(symbol string, trips []account.RoundTrip, open *account.Position) string {
	var sb strings.Builder

	sb.WriteString("//@version=5\n")
	sb.WriteString(fmt.Sprintf("indicator(\"%s trade markers\", overlay=true)\n\n", escape(symbol)))
	sb.WriteString("// ============================================\n")
	sb.WriteString("// TRADE VALIDATION MARKERS\n")
	sb.WriteString("// ============================================\n\n")

	for _, trip := range trips {
		writeEntry(&sb, trip.ID, trip.EntryTime, trip.EntryPrice)

		exitColor := "color.green"
		if trip.Penalty == account.PenaltySet {
			exitColor = "color.red"
		}
		exitText := fmt.Sprintf("#%d SELL\\nExit: %.2f\\n%s\\nP&L: %.2f%%",
			trip.ID, trip.ExitPrice, escape(trip.ExitReason), trip.PnLPercent)

		sb.WriteString(fmt.Sprintf("t%d_exit = time == %s\n", trip.ID, formatPineTimestamp(trip.ExitTime)))
		sb.WriteString(fmt.Sprintf("plotshape(t%d_exit, title=\"#%d SELL\", location=location.abovebar, color=%s, style=shape.labeldown, size=size.small, text=\"%s\", textcolor=color.white)\n\n",
			trip.ID, trip.ID, exitColor, exitText))
	}

	if open != nil {
		writeEntry(&sb, open.ID, open.OpenTime, open.EntryPrice)
	}

	return sb.String()
}

func writeEntry(sb *strings.Builder, id int, ts time.Time, price float64) {
	entryText := fmt.Sprintf("#%d BUY\\nEntry: %.2f", id, price)
	sb.WriteString(fmt.Sprintf("t%d_entry = time == %s\n", id, formatPineTimestamp(ts)))
	sb.WriteString(fmt.Sprintf("plotshape(t%d_entry, title=\"#%d BUY\", location=location.belowbar, color=color.blue, style=shape.labelup, size=size.small, text=\"%s\", textcolor=color.white)\n\n",
		id, id, entryText))
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

func formatPineTimestamp(t time.Time) string {
	utc := t.UTC()
	return fmt.Sprintf("timestamp(\"UTC\", %d, %d, %d, %d, %d)",
		utc.Year(), int(utc.Month()), utc.Day(), utc.Hour(), utc.Minute())
}
