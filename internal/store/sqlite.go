package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var _ LookupStore = (*SQLiteStore)(nil)

// SQLiteStore implements LookupStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// and creates the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			name           TEXT,
			horizon        INTEGER NOT NULL,
			fit_percentage REAL,
			last_close     REAL,
			last_predicted REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_ts ON lookups(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_ticker ON lookups(ticker, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordLookup inserts l.
func (s *SQLiteStore) RecordLookup(ctx context.Context, l Lookup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := l.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO lookups
		(timestamp, ticker, name, horizon, fit_percentage, last_close, last_predicted)
		VALUES (?,?,?,?,?,?,?)`,
		at.UnixMilli(), l.Ticker, l.Name, l.Horizon, l.FitPercentage,
		nullable(l.LastClose), nullable(l.LastPredicted),
	)
	if err != nil {
		return fmt.Errorf("inserting lookup: %w", err)
	}
	return nil
}

// RecentLookups returns up to limit lookups, newest first.
func (s *SQLiteStore) RecentLookups(ctx context.Context, ticker string, limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT timestamp, ticker, name, horizon, fit_percentage, last_close, last_predicted
		FROM lookups`
	args := []any{}
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lookups: %w", err)
	}
	defer rows.Close()

	var out []Lookup
	for rows.Next() {
		var (
			ts        int64
			l         Lookup
			name      sql.NullString
			fit       sql.NullFloat64
			lastClose sql.NullFloat64
			lastPred  sql.NullFloat64
		)
		if err := rows.Scan(&ts, &l.Ticker, &name, &l.Horizon, &fit, &lastClose, &lastPred); err != nil {
			return nil, fmt.Errorf("scanning lookup: %w", err)
		}
		l.CreatedAt = time.UnixMilli(ts)
		l.Name = name.String
		l.FitPercentage = fit.Float64
		l.LastClose = fromNull(lastClose)
		l.LastPredicted = fromNull(lastPred)
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
