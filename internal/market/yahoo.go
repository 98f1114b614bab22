package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/jwtly10/sniper/internal/types"
)

type barIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// YahooSource downloads daily bars from Yahoo Finance.
type YahooSource struct {
	Suffix string
	Retry  RetryConfig

	chart func(*chart.Params) barIterator
	now   func() time.Time
}

func NewYahooSource(suffix string) *YahooSource {
	return &YahooSource{
		Suffix: suffix,
		Retry:  DefaultRetryConfig(),
		chart:  func(p *chart.Params) barIterator { return chart.Get(p) },
		now:    time.Now,
	}
}

// Symbol appends the exchange suffix unless the instrument already carries it.
func (s *YahooSource) Symbol(instrument string) string {
	symbol := strings.ToUpper(strings.TrimSpace(instrument))
	if s.Suffix == "" || strings.HasSuffix(symbol, strings.ToUpper(s.Suffix)) {
		return symbol
	}
	return symbol + strings.ToUpper(s.Suffix)
}

func (s *YahooSource) Fetch(ctx context.Context, instrument string, start time.Time) ([]types.Bar, error) {
	symbol := s.Symbol(instrument)
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}
	end := s.now()

	marketLog.Info("Downloading data", "symbol", symbol, "from", start.Format(time.DateOnly))

	var bars []types.Bar
	err := WithRetry(ctx, s.Retry, func() error {
		iter := s.chart(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})

		bars = bars[:0]
		for iter.Next() {
			b := iter.Bar()
			bars = append(bars, types.Bar{
				Timestamp: time.Unix(int64(b.Timestamp), 0).UTC(),
				Open:      b.Open.InexactFloat64(),
				High:      b.High.InexactFloat64(),
				Low:       b.Low.InexactFloat64(),
				Close:     b.Close.InexactFloat64(),
				Volume:    float64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bars = clean(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("no data returned for %s since %s", symbol, start.Format(time.DateOnly))
	}
	marketLog.Info("Downloaded bars", "symbol", symbol, "count", len(bars))
	return bars, nil
}
