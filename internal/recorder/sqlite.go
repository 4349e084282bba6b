package recorder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL mode lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id               TEXT PRIMARY KEY,
			created_at       INTEGER NOT NULL,
			source           TEXT NOT NULL,
			as_of            TEXT,
			status           TEXT NOT NULL,
			rule             TEXT,
			window_months    INTEGER,
			risky            TEXT,
			safe             TEXT,
			benchmark        TEXT,
			missing          TEXT,
			holding          TEXT,
			reason           TEXT,
			total_return     REAL,
			max_drawdown     REAL,
			sharpe           REAL,
			benchmark_return REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON analysis_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS signal_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES analysis_runs(id),
			date        TEXT NOT NULL,
			decided     INTEGER NOT NULL,
			instrument  TEXT,
			best_risky  TEXT,
			best_value  REAL,
			safe_value  REAL,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_run ON signal_history(run_id)`,

		`CREATE TABLE IF NOT EXISTS rank_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES analysis_runs(id),
			date        TEXT NOT NULL,
			rank        INTEGER NOT NULL,
			instrument  TEXT NOT NULL,
			value       REAL,
			prev_rank   INTEGER,
			movement    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rank_run ON rank_snapshots(run_id)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores a run with its decisions and rank history in one
// transaction and returns the run ID, generating one when snap.ID is empty.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, snap *RunSnapshot) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var holding, reason string
	if snap.Current != nil {
		holding, reason = snap.Current.Instrument, string(snap.Current.Reason)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO analysis_runs
		(id, created_at, source, as_of, status, rule, window_months, risky, safe, benchmark,
		 missing, holding, reason, total_return, max_drawdown, sharpe, benchmark_return)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.ID, snap.CreatedAt.Unix(), snap.Source, formatDate(snap.AsOf), snap.Status,
		snap.Rule, snap.Window, strings.Join(snap.Risky, ","), snap.Safe, snap.Benchmark,
		strings.Join(snap.Missing, ","), holding, reason,
		snap.TotalReturn, snap.MaxDrawdown, snap.Sharpe, snap.BenchmarkReturn,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, d := range snap.Decisions {
		_, err := tx.ExecContext(ctx, `INSERT INTO signal_history
			(run_id, date, decided, instrument, best_risky, best_value, safe_value, reason)
			VALUES (?,?,?,?,?,?,?,?)`,
			snap.ID, formatDate(d.Date), d.Decided, d.Instrument, d.BestRisky,
			d.BestValue, d.SafeValue, string(d.Reason),
		)
		if err != nil {
			return "", fmt.Errorf("insert signal: %w", err)
		}
	}

	for _, rs := range snap.Ranks {
		for _, e := range rs.Entries {
			_, err := tx.ExecContext(ctx, `INSERT INTO rank_snapshots
				(run_id, date, rank, instrument, value, prev_rank, movement)
				VALUES (?,?,?,?,?,?,?)`,
				snap.ID, formatDate(rs.Date), e.Rank, e.Instrument, e.Value, e.PrevRank, int(e.Movement),
			)
			if err != nil {
				return "", fmt.Errorf("insert rank: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return snap.ID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []RunRecord
	err := r.db.SelectContext(ctx, &out, `SELECT
		id, created_at, source, as_of, status, rule, window_months, risky, safe, benchmark,
		missing, holding, reason, total_return, max_drawdown, sharpe, benchmark_return
		FROM analysis_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return out, nil
}

// RunSignals returns the decision history stored for a run, oldest first.
func (r *SQLiteRecorder) RunSignals(ctx context.Context, runID string) ([]SignalRecord, error) {
	var out []SignalRecord
	err := r.db.SelectContext(ctx, &out, `SELECT
		run_id, date, decided, instrument, best_risky, best_value, safe_value, reason
		FROM signal_history
		WHERE run_id = ?
		ORDER BY date, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("select signals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
