package account

import (
	"fmt"
	"time"

	"github.com/jwtly10/sniper/internal/logging"
	"github.com/jwtly10/sniper/internal/types"
)

var accLog = logging.New("account")

const (
	Flat State = iota
	Long
)

// State is the position state of the account. Exactly one holds at any time.
type State int

func (s State) String() string {
	switch s {
	case Flat:
		return "FLAT"
	case Long:
		return "LONG"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	PenaltyKeep PenaltyEffect = iota
	PenaltySet
	PenaltyClear
)

// PenaltyEffect is what an exit does to the penalty flag.
type PenaltyEffect int

func (p PenaltyEffect) String() string {
	switch p {
	case PenaltySet:
		return "SET"
	case PenaltyClear:
		return "CLEAR"
	default:
		return "KEEP"
	}
}

// Account is an all-in/all-out single instrument book.
// When Flat it holds capital; when Long it holds a quantity bought at EntryPrice.
type Account struct {
	capital    float64
	position   *Position
	penalty    bool
	fills      []types.Trade
	roundTrips []RoundTrip
	nextID     int
}

type Position struct {
	ID         int
	OpenTime   time.Time
	EntryPrice float64
	Quantity   float64
	// Capital committed at entry
	Cost float64
}

// RoundTrip is a closed Buy/Sell pair.
type RoundTrip struct {
	ID         int
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	CapitalIn  float64
	CapitalOut float64
	PnL        float64
	PnLPercent float64
	ExitReason string
	Penalty    PenaltyEffect
}

func (t RoundTrip) Print() string {
	return fmt.Sprintf("#%d | LONG | Entry: %.4f @ %s | Exit: %.4f @ %s | P&L: %.2f (%.2f%%) | %s",
		t.ID,
		t.EntryPrice,
		t.EntryTime.Format("2006-01-02"),
		t.ExitPrice,
		t.ExitTime.Format("2006-01-02"),
		t.PnL,
		t.PnLPercent,
		t.ExitReason,
	)
}

func NewAccount(initialCapital float64) *Account {
	return &Account{
		capital: initialCapital,
		nextID:  1,
	}
}

func (a *Account) State() State {
	if a.position != nil {
		return Long
	}
	return Flat
}

// Capital is the idle cash. It is zero while Long.
func (a *Account) Capital() float64 {
	return a.capital
}

// Position returns a copy of the open position, or nil when Flat.
func (a *Account) Position() *Position {
	if a.position == nil {
		return nil
	}
	p := *a.position
	return &p
}

func (a *Account) Penalty() bool {
	return a.penalty
}

// Buy moves the whole capital into the instrument at price and clears the penalty flag.
func (a *Account) Buy(ts time.Time, price float64, reason string) (types.Trade, error) {
	if a.position != nil {
		return types.Trade{}, fmt.Errorf("buy at %s: account is already long", ts.Format(time.DateOnly))
	}
	if price <= 0 {
		return types.Trade{}, fmt.Errorf("buy at %s: price must be positive, got %v", ts.Format(time.DateOnly), price)
	}

	pos := &Position{
		ID:         a.nextID,
		OpenTime:   ts,
		EntryPrice: price,
		Quantity:   a.capital / price,
		Cost:       a.capital,
	}
	a.nextID++
	a.position = pos
	a.capital = 0
	a.penalty = false

	trade := types.Trade{Timestamp: ts, Side: types.BUY, Price: price, Reason: reason}
	a.fills = append(a.fills, trade)

	accLog.Debug("Opened long", "id", pos.ID, "price", price, "quantity", pos.Quantity, "cost", pos.Cost, "timestamp", ts)
	return trade, nil
}

// Sell closes the open position at price and applies the exit's penalty effect.
func (a *Account) Sell(ts time.Time, price float64, reason string, effect PenaltyEffect) (RoundTrip, error) {
	if a.position == nil {
		return RoundTrip{}, fmt.Errorf("sell at %s: account is flat", ts.Format(time.DateOnly))
	}
	if price <= 0 {
		return RoundTrip{}, fmt.Errorf("sell at %s: price must be positive, got %v", ts.Format(time.DateOnly), price)
	}

	pos := a.position
	proceeds := pos.Quantity * price
	pnl := proceeds - pos.Cost

	rt := RoundTrip{
		ID:         pos.ID,
		EntryTime:  pos.OpenTime,
		ExitTime:   ts,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Quantity:   pos.Quantity,
		CapitalIn:  pos.Cost,
		CapitalOut: proceeds,
		PnL:        pnl,
		ExitReason: reason,
		Penalty:    effect,
	}
	if pos.Cost != 0 {
		rt.PnLPercent = pnl / pos.Cost * 100
	}

	a.capital = proceeds
	a.position = nil
	switch effect {
	case PenaltySet:
		a.penalty = true
	case PenaltyClear:
		a.penalty = false
	}

	a.fills = append(a.fills, types.Trade{Timestamp: ts, Side: types.SELL, Price: price, Reason: reason})
	a.roundTrips = append(a.roundTrips, rt)

	accLog.Debug("Closed long", "id", rt.ID, "price", price, "pnl", pnl, "reason", reason, "penalty", a.penalty, "timestamp", ts)
	return rt, nil
}

// Equity marks the account to market at price without trading.
func (a *Account) Equity(price float64) float64 {
	if a.position != nil {
		return a.position.Quantity * price
	}
	return a.capital
}

// Fills returns the executed trades in order.
func (a *Account) Fills() []types.Trade {
	return append([]types.Trade(nil), a.fills...)
}

func (a *Account) RoundTrips() []RoundTrip {
	return append([]RoundTrip(nil), a.roundTrips...)
}
