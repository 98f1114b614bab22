package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jwtly10/sniper/internal/backtest"
	"github.com/jwtly10/sniper/internal/types"
)

// Printer renders a run for the terminal. Colours are dropped when w is not a TTY.
type Printer struct {
	w        io.Writer
	Currency string

	title  lipgloss.Style
	rule   lipgloss.Style
	buy    lipgloss.Style
	sell   lipgloss.Style
	gain   lipgloss.Style
	loss   lipgloss.Style
	result lipgloss.Style
	muted  lipgloss.Style
}

func NewPrinter(w io.Writer, currency string) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		Currency: currency,
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")),
		rule:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		buy:    r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		sell:   r.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		gain:   r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		loss:   r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		result: r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

func (p *Printer) Header(symbol, variant string, capital float64) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("[*] %s %s starting | Capital: %s", strings.ToUpper(variant), symbol, p.Money(capital, 0))))
	fmt.Fprintln(p.w, p.rule.Render(strings.Repeat("-", 120)))
}

// Trades prints one line per fill in execution order. Sell lines carry the capital after the sale
// and the round trip's result.
func (p *Printer) Trades(res *backtest.Results) {
	sold := 0
	for _, fill := range res.Trades {
		date := fmt.Sprintf("%-12s", fill.Timestamp.Format(time.DateOnly))
		price := fmt.Sprintf("%-10.2f", fill.Price)

		switch fill.Side {
		case types.BUY:
			fmt.Fprintf(p.w, "%s | %s | %s | %s\n", date, p.buy.Render("BUY")+" ", price, fill.Reason)
		case types.SELL:
			result := ""
			if sold < len(res.RoundTrips) {
				rt := res.RoundTrips[sold]
				result = p.signed(rt.PnL, fmt.Sprintf("%+.2f%%", rt.PnLPercent))
				fmt.Fprintf(p.w, "%s | %s | %s | %-45s | %s %s\n", date, p.sell.Render("SELL"), price, fill.Reason, p.Money(rt.CapitalOut, 2), result)
			}
			sold++
		}
	}
	if res.Open != nil {
		fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("Position still open since %s at %.2f", res.Open.OpenTime.Format(time.DateOnly), res.Open.EntryPrice)))
	}
}

// Result prints "Result: initial -> final (ROI%)".
func (p *Printer) Result(res *backtest.Results) {
	roi := p.signed(res.FinalCapital-res.InitialCapital, fmt.Sprintf("(%+.1f%%)", res.ROI()))
	fmt.Fprintf(p.w, "\n%s %s -> %s %s\n", p.result.Render("Result:"), p.Money(res.InitialCapital, 0), p.Money(res.FinalCapital, 2), roi)
}

func (p *Printer) signed(v float64, text string) string {
	if v < 0 {
		return p.loss.Render(text)
	}
	return p.gain.Render(text)
}

// Money formats v with thousands separators, the given number of decimals and the currency.
func (p *Printer) Money(v float64, places int32) string {
	s := FormatAmount(decimal.NewFromFloat(v), places)
	if p.Currency == "" {
		return s
	}
	return s + " " + p.Currency
}

// FormatAmount rounds d half away from zero and groups the integer part by thousands.
func FormatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
