// Package history persists run results to SQLite and serves them back as
// the advisor's historical context. It lives outside the evaluation core:
// the core reads history only through the tuning.History interface.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/evanmorse/crisiseval/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id             TEXT PRIMARY KEY,
	started_at         TEXT NOT NULL,
	finished_at        TEXT NOT NULL,
	corpus_version     TEXT NOT NULL,
	plain_pass_rate    REAL NOT NULL,
	weighted_pass_rate REAL NOT NULL,
	report_json        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS category_runs (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL,
	category  TEXT NOT NULL,
	pass_rate REAL NOT NULL,
	goal_met  INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_category_runs_category ON category_runs(category, id);
`

// Store records evaluation runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at path, applying pragmas and
// creating the schema if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for single-writer usage.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// SaveReport records one completed run and its per-category pass rates.
func (s *Store) SaveReport(ctx context.Context, r *report.Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, corpus_version,
			plain_pass_rate, weighted_pass_rate, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.CorpusVersion,
		r.Summary.PlainPassRate,
		r.Summary.WeightedPassRate,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, cs := range r.Summary.Categories {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO category_runs (run_id, category, pass_rate, goal_met)
			VALUES (?, ?, ?, ?)`,
			r.RunID, cs.Category, cs.PassRate, boolToInt(cs.GoalMet),
		)
		if err != nil {
			return fmt.Errorf("insert category run: %w", err)
		}
	}

	return tx.Commit()
}

// PassRates implements tuning.History: up to lastN most-recent pass rates
// for the category, newest first.
func (s *Store) PassRates(category string, lastN int) ([]float64, error) {
	rows, err := s.db.Query(`
		SELECT pass_rate FROM category_runs
		WHERE category = ?
		ORDER BY id DESC
		LIMIT ?`, category, lastN)
	if err != nil {
		return nil, fmt.Errorf("query pass rates: %w", err)
	}
	defer rows.Close()

	var rates []float64
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan pass rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// RunRecord is a stored run's headline numbers.
type RunRecord struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	CorpusVersion    string
	PlainPassRate    float64
	WeightedPassRate float64
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, corpus_version,
			plain_pass_rate, weighted_pass_rate
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		if err := rows.Scan(&rec.RunID, &started, &finished, &rec.CorpusVersion,
			&rec.PlainPassRate, &rec.WeightedPassRate); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DefaultDBPath resolves the database file path in priority order:
// 1. CRISISEVAL_DB environment variable
// 2. $XDG_DATA_HOME/crisiseval/crisiseval.db
// 3. ~/.local/share/crisiseval/crisiseval.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("CRISISEVAL_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "crisiseval", "crisiseval.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
