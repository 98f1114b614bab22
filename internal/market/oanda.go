package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/jwtly10/sniper/internal/types"
)

const (
	DefaultOandaURL      = "https://api-fxpractice.oanda.com"
	MaxCandlesPerRequest = 4000 // Limit is 5000 but we maintain a buffer

	dailyGranularity = "D"
	day              = 24 * time.Hour
)

// OandaSource fetches daily mid candles from the OANDA v20 REST API.
type OandaSource struct {
	AccountID string

	client *resty.Client
	now    func() time.Time
}

func NewOandaSource(accountID, apiKey, apiURL string) *OandaSource {
	if apiURL == "" {
		apiURL = DefaultOandaURL
	}

	client := resty.New().
		SetBaseURL(apiURL).
		SetAuthToken(apiKey).
		SetHeader("Accept-Datetime-Format", "RFC3339").
		SetTimeout(30 * time.Second).
		SetRetryCount(2)

	return &OandaSource{
		AccountID: accountID,
		client:    client,
		now:       time.Now,
	}
}

// Fetch iteratively pulls every daily candle from start until now in batches.
func (s *OandaSource) Fetch(ctx context.Context, instrument string, start time.Time) ([]types.Bar, error) {
	instrument = strings.ToUpper(strings.ReplaceAll(instrument, "/", "_"))
	to := s.now()

	marketLog.Info("Initiating batched Oanda fetch", "instrument", instrument, "from", start, "to", to)

	var allBars []types.Bar
	currentFrom := start

	for currentFrom.Before(to) {
		batchTo := currentFrom.Add(day * MaxCandlesPerRequest)
		if batchTo.After(to) {
			batchTo = to
		}

		batch, err := s.fetchCandles(ctx, instrument, currentFrom, batchTo)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch candles between %s and %s: %w", currentFrom, batchTo, err)
		}

		marketLog.Debug("Found bars in latest fetch", "count", len(batch.Candles), "from", currentFrom, "to", batchTo)

		if len(batch.Candles) == 0 {
			break // No more data available
		}

		bars, err := candlesToBars(batch.Candles)
		if err != nil {
			return nil, fmt.Errorf("failed to convert candles to bars: %w", err)
		}
		if len(bars) == 0 {
			break
		}
		allBars = append(allBars, bars...)

		currentFrom = bars[len(bars)-1].Timestamp.Add(day)
	}

	allBars = clean(allBars)
	marketLog.Info("Completed fetching all oanda bars", "totalBars", len(allBars))
	return allBars, nil
}

func (s *OandaSource) fetchCandles(ctx context.Context, instrument string, from, to time.Time) (*CandlestickResponse, error) {
	var out CandlestickResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"account":    s.AccountID,
			"instrument": instrument,
		}).
		SetQueryParams(map[string]string{
			"granularity":  dailyGranularity,
			"price":        "M",
			"from":         strconv.FormatInt(from.Unix(), 10),
			"to":           strconv.FormatInt(to.Unix(), 10),
			"includeFirst": "true",
		}).
		SetResult(&out).
		Get("/v3/accounts/{account}/instruments/{instrument}/candles")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		marketLog.Warn("Oanda returned an error status", "statusCode", resp.StatusCode(), "rawResponse", resp.String())
		return nil, fmt.Errorf("failed to fetch candles: status code %d, API Response: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}

// candlesToBars converts completed candles only. The still-forming daily candle is skipped.
func candlesToBars(candles []Candlestick) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(candles))
	for _, candle := range candles {
		if !candle.Complete {
			continue
		}
		timestamp, err := time.Parse(time.RFC3339, candle.Time)
		if err != nil {
			return nil, fmt.Errorf("failed to parse candle time %s: %w", candle.Time, err)
		}

		var prices [4]float64
		for i, raw := range []PriceValue{candle.Mid.O, candle.Mid.H, candle.Mid.L, candle.Mid.C} {
			d, err := decimal.NewFromString(string(raw))
			if err != nil {
				return nil, fmt.Errorf("failed to parse candle price %q at %s: %w", raw, candle.Time, err)
			}
			prices[i] = d.InexactFloat64()
		}

		bars = append(bars, types.Bar{
			Timestamp: timestamp,
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    float64(candle.Volume),
		})
	}
	return bars, nil
}
