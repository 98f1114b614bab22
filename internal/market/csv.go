package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwtly10/sniper/internal/types"
)

var csvColumns = []string{"date", "open", "high", "low", "close", "volume"}

// CSVSource reads daily bars from a Date,Open,High,Low,Close,Volume file.
// Extra columns such as Adj Close are ignored. The instrument argument is informational.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Fetch(ctx context.Context, instrument string, start time.Time) ([]types.Bar, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	// Exports are often newest first
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	from := 0
	for from < len(bars) && bars[from].Timestamp.Before(start) {
		from++
	}
	bars = clean(bars[from:])
	marketLog.Info("Loaded CSV bars", "path", s.Path, "instrument", instrument, "count", len(bars))
	return bars, nil
}

// ReadCSV parses bars from r. Rows with empty or "null" prices are skipped.
func ReadCSV(r io.Reader) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var bars []types.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, ok, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			bars = append(bars, bar)
		}
	}
	return bars, nil
}

func parseRecord(record []string, index map[string]int) (types.Bar, bool, error) {
	ts, err := parseDate(record[index["date"]])
	if err != nil {
		return types.Bar{}, false, err
	}

	var values [5]float64
	for i, col := range csvColumns[1:] {
		raw := strings.TrimSpace(record[index[col]])
		if raw == "" || strings.EqualFold(raw, "null") {
			return types.Bar{}, false, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return types.Bar{}, false, fmt.Errorf("invalid %s %q: %w", col, raw, err)
		}
		values[i] = d.InexactFloat64()
	}

	return types.Bar{
		Timestamp: ts,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, true, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
