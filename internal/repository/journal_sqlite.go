package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ChartSentry/internal/domain/models"
	drepo "ChartSentry/internal/domain/repository"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	level TEXT NOT NULL,
	label TEXT NOT NULL,
	signal_price REAL,
	verdict TEXT,
	direction TEXT,
	entry_price REAL,
	fallback INTEGER NOT NULL DEFAULT 0,
	verification TEXT
);
CREATE INDEX IF NOT EXISTS idx_cycles_ticker ON cycles(ticker, created_at);
`

// SQLiteJournal appends one row per completed pipeline cycle.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (and migrates) the journal database at path.
func NewSQLiteJournal(path string) (drepo.Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migrate: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Record appends one cycle row. The verification result is stored as JSON
// since its shape is already stable on the wire.
func (j *SQLiteJournal) Record(ctx context.Context, sig models.Signal, d models.Decision, v *models.VerificationResult) error {
	var signalPrice sql.NullFloat64
	if sig.HasPrice() {
		signalPrice = sql.NullFloat64{Float64: sig.Price, Valid: true}
	}

	var entryPrice sql.NullFloat64
	if d.EntryPrice != nil {
		entryPrice = sql.NullFloat64{Float64: *d.EntryPrice, Valid: true}
	}

	var verification sql.NullString
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("journal encode verification: %w", err)
		}
		verification = sql.NullString{String: string(b), Valid: true}
	}

	fallback := 0
	if d.Fallback {
		fallback = 1
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO cycles (created_at, ticker, level, label, signal_price, verdict, direction, entry_price, fallback, verification)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), sig.Ticker, sig.Level, sig.Label,
		signalPrice, d.Verdict, d.Direction, entryPrice, fallback, verification,
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
