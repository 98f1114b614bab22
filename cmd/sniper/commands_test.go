package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBars writes a rise-then-fall daily series so trend following variants trade.
func writeBars(t *testing.T, path string) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("Date,Open,High,Low,Close,Volume\n")

	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 20.0
	for i := 0; i < 120; i++ {
		step := 0.4
		if i >= 70 {
			step = -0.5
		}
		open := price
		price += step
		high := max(open, price) + 0.2
		low := min(open, price) - 0.2
		fmt.Fprintf(&sb, "%s,%.2f,%.2f,%.2f,%.2f,%d\n", day.AddDate(0, 0, i).Format(time.DateOnly), open, high, low, price, 1000+i*10)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestRunSaveAndList(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bars.csv")
	dbPath := filepath.Join(dir, "runs.db")
	pinePath := filepath.Join(dir, "markers.pine")
	writeBars(t, csvPath)

	out := execute(t, "run", "TEST", "--csv", csvPath, "--variant", "supertrend",
		"--start", "2023-01-01", "--capital", "1000", "--save", "--db", dbPath, "--pine", pinePath)

	assert.Contains(t, out, "SUPERTREND TEST starting")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "Result: 1,000")
	assert.Contains(t, out, "=== Backtest Results ===")
	assert.Contains(t, out, "Run saved as ")
	assert.FileExists(t, pinePath)

	listed := execute(t, "runs", "--db", dbPath)
	assert.Contains(t, listed, "TEST")
	assert.Contains(t, listed, "supertrend")

	id := strings.TrimSpace(out[strings.Index(out, "Run saved as ")+len("Run saved as "):])
	fills := execute(t, "trades", id, "--db", dbPath)
	assert.Contains(t, fills, "BUY")
}

func TestRunRejectsUnknownVariant(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bars.csv")
	writeBars(t, csvPath)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--csv", csvPath, "--variant", "scalper"})
	assert.ErrorContains(t, cmd.Execute(), "unknown strategy variant")
}

func TestVariants(t *testing.T) {
	out := execute(t, "variants")
	for _, name := range []string{"sniper", "breakout", "supertrend", "momentum"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "penalty:    yes")
}

func TestRunFlagsOverrideBadEnvironment(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bars.csv")
	writeBars(t, csvPath)
	t.Setenv("SNIPER_SOURCE", "bogus")

	out := execute(t, "run", "TEST", "--source", "csv", "--csv", csvPath, "--variant", "supertrend",
		"--start", "2023-01-01", "--stats=false")
	assert.Contains(t, out, "Result:")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "TEST", "--start", "2023-01-01"})
	assert.ErrorContains(t, cmd.Execute(), `unknown source "bogus"`)
}
