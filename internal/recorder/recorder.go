package recorder

import (
	"context"
	"time"

	"GemSentinel/internal/model"
)

// RunSnapshot holds everything persisted for one analysis run.
type RunSnapshot struct {
	ID        string
	CreatedAt time.Time
	Source    string // "cron", "api", "cli" or "chat"

	AsOf      time.Time
	Status    string
	Rule      string
	Window    int
	Risky     []string
	Safe      string
	Benchmark string
	Missing   []string

	Current *model.Decision

	TotalReturn     float64
	MaxDrawdown     float64
	Sharpe          float64
	BenchmarkReturn *float64

	Decisions []model.Decision
	Ranks     []model.RankSnapshot
}

// RunRecord is one row of analysis_runs.
type RunRecord struct {
	ID              string   `db:"id" json:"id"`
	CreatedAt       int64    `db:"created_at" json:"created_at"`
	Source          string   `db:"source" json:"source"`
	AsOf            string   `db:"as_of" json:"as_of"`
	Status          string   `db:"status" json:"status"`
	Rule            string   `db:"rule" json:"rule"`
	Window          int      `db:"window_months" json:"window_months"`
	Risky           string   `db:"risky" json:"risky"`
	Safe            string   `db:"safe" json:"safe"`
	Benchmark       string   `db:"benchmark" json:"benchmark,omitempty"`
	Missing         string   `db:"missing" json:"missing,omitempty"`
	Holding         string   `db:"holding" json:"holding,omitempty"`
	Reason          string   `db:"reason" json:"reason,omitempty"`
	TotalReturn     float64  `db:"total_return" json:"total_return"`
	MaxDrawdown     float64  `db:"max_drawdown" json:"max_drawdown"`
	Sharpe          float64  `db:"sharpe" json:"sharpe"`
	BenchmarkReturn *float64 `db:"benchmark_return" json:"benchmark_return"`
}

// SignalRecord is one row of signal_history.
type SignalRecord struct {
	RunID      string  `db:"run_id" json:"run_id"`
	Date       string  `db:"date" json:"date"`
	Decided    bool    `db:"decided" json:"decided"`
	Instrument string  `db:"instrument" json:"instrument,omitempty"`
	BestRisky  string  `db:"best_risky" json:"best_risky,omitempty"`
	BestValue  float64 `db:"best_value" json:"best_value"`
	SafeValue  float64 `db:"safe_value" json:"safe_value"`
	Reason     string  `db:"reason" json:"reason"`
}

// Recorder persists analysis runs for later inspection.
type Recorder interface {
	RecordRun(ctx context.Context, snap *RunSnapshot) (string, error)
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	RunSignals(ctx context.Context, runID string) ([]SignalRecord, error)
	Close() error
}
