package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jwtly10/sniper/internal/logging"
	"github.com/jwtly10/sniper/internal/types"
)

var storeLog = logging.New("store")

var ErrRunNotFound = errors.New("run not found")

// Store keeps backtest runs and their fills in SQLite.
type Store struct {
	db *sql.DB
}

type Run struct {
	ID             string
	Symbol         string
	Variant        string
	Source         string
	Start          time.Time
	InitialCapital float64
	FinalCapital   float64
	// Still long at the end, final capital is marked to market
	Open   bool
	Trades []types.Trade
}

type RunSummary struct {
	ID             string
	Symbol         string
	Variant        string
	Source         string
	Start          time.Time
	InitialCapital float64
	FinalCapital   float64
	Open           bool
	TradeCount     int
	CreatedAt      string
}

// ROI returns the run's percentage return.
func (r RunSummary) ROI() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return (r.FinalCapital - r.InitialCapital) / r.InitialCapital * 100
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    variant TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL,
    initial_capital REAL NOT NULL,
    final_capital REAL NOT NULL,
    open_position INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trades (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    ts TEXT NOT NULL,
    side TEXT NOT NULL,
    price REAL NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and its fills in one transaction and returns the run ID.
// A new UUID is assigned when run.ID is empty.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, symbol, variant, source, start_date, initial_capital, final_capital, open_position)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Symbol, run.Variant, run.Source, run.Start.Format(time.DateOnly), run.InitialCapital, run.FinalCapital, run.Open)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trades (run_id, seq, ts, side, price, reason) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare trade insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range run.Trades {
		if _, err := stmt.ExecContext(ctx, run.ID, i+1, t.Timestamp.UTC().Format(time.RFC3339), string(t.Side), t.Price, t.Reason); err != nil {
			return "", fmt.Errorf("insert trade %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}

	storeLog.Debug("Saved run", "id", run.ID, "symbol", run.Symbol, "variant", run.Variant, "trades", len(run.Trades))
	return run.ID, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.symbol, r.variant, r.source, r.start_date, r.initial_capital, r.final_capital,
       r.open_position, r.created_at, COUNT(t.seq)
FROM runs r
LEFT JOIN trades t ON t.run_id = r.id
GROUP BY r.id
ORDER BY r.created_at DESC, r.rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var start string
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Variant, &r.Source, &start, &r.InitialCapital, &r.FinalCapital, &r.Open, &r.CreatedAt, &r.TradeCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.Start, err = time.Parse(time.DateOnly, start); err != nil {
			return nil, fmt.Errorf("parse start date of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Trades returns the fills of a run in execution order.
func (s *Store) Trades(ctx context.Context, runID string) ([]types.Trade, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT ts, side, price, reason FROM trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		var t types.Trade
		var ts, side string
		if err := rows.Scan(&ts, &side, &t.Price, &t.Reason); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if t.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parse trade time: %w", err)
		}
		t.Side = types.Side(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
