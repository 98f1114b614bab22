package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwtly10/sniper/internal/logging"
	"github.com/jwtly10/sniper/internal/types"
)

var marketLog = logging.New("market")

const (
	SourceYahoo = "yahoo"
	SourceCSV   = "csv"
	SourceOanda = "oanda"
)

// Source loads daily bars for one instrument from start onward, oldest first.
type Source interface {
	Fetch(ctx context.Context, instrument string, start time.Time) ([]types.Bar, error)
}

// Options selects and configures a Source.
type Options struct {
	Name string

	// Yahoo symbol suffix, e.g. ".IS" for Borsa Istanbul
	Suffix string

	CSVPath string

	OandaAccountID string
	OandaAPIKey    string
	OandaURL       string
}

func NewSource(opts Options) (Source, error) {
	switch strings.ToLower(opts.Name) {
	case SourceYahoo, "":
		return NewYahooSource(opts.Suffix), nil
	case SourceCSV:
		if opts.CSVPath == "" {
			return nil, fmt.Errorf("csv source needs a file path")
		}
		return NewCSVSource(opts.CSVPath), nil
	case SourceOanda:
		if opts.OandaAPIKey == "" || opts.OandaAccountID == "" {
			return nil, fmt.Errorf("oanda source needs an account id and api key")
		}
		return NewOandaSource(opts.OandaAccountID, opts.OandaAPIKey, opts.OandaURL), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", opts.Name)
	}
}

// clean drops bars with non-positive prices and bars that do not advance in time.
func clean(bars []types.Bar) []types.Bar {
	out := bars[:0]
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		if len(out) > 0 && !b.Timestamp.After(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, b)
	}
	if dropped := len(bars) - len(out); dropped > 0 {
		marketLog.Debug("Dropped unusable bars", "count", dropped)
	}
	return out
}
