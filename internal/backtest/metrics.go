package backtest

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Window selects a sub-range of the ledger by date, both ends inclusive.
// A zero bound is open.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Metrics summarizes one equity curve over a window.
type Metrics struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Months      int       `json:"months"`
	TotalReturn float64   `json:"total_return"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Sharpe      float64   `json:"sharpe"`
}

// Summary holds strategy and optional benchmark metrics for one window.
type Summary struct {
	Strategy  Metrics  `json:"strategy"`
	Benchmark *Metrics `json:"benchmark,omitempty"`
}

// Summarize computes the metrics over the ledger rows inside w. The
// returns used are those earned after the window's first point.
func Summarize(res *Result, w Window) Summary {
	var rows []LedgerRow
	for _, row := range res.Ledger {
		if w.contains(row.Date) {
			rows = append(rows, row)
		}
	}

	var s Summary
	if len(rows) == 0 {
		return s
	}

	eq := make([]float64, len(rows))
	rets := make([]float64, 0, len(rows))
	for i, r := range rows {
		eq[i] = r.Equity
		if i > 0 {
			rets = append(rets, r.StrategyRet)
		}
	}
	s.Strategy = metricsFor(rows, eq, rets)

	if res.HasBenchmark {
		beq := make([]float64, len(rows))
		brets := make([]float64, 0, len(rows))
		for i, r := range rows {
			beq[i] = r.BenchmarkEquity
			if i > 0 {
				brets = append(brets, r.BenchmarkRet)
			}
		}
		m := metricsFor(rows, beq, brets)
		s.Benchmark = &m
	}
	return s
}

func metricsFor(rows []LedgerRow, equity, returns []float64) Metrics {
	return Metrics{
		Start:       rows[0].Date,
		End:         rows[len(rows)-1].Date,
		Months:      len(returns),
		TotalReturn: TotalReturn(equity),
		MaxDrawdown: MaxDrawdown(equity),
		Sharpe:      Sharpe(returns),
	}
}

// TotalReturn is last/first - 1, or 0 when undefined.
func TotalReturn(equity []float64) float64 {
	if len(equity) < 2 || equity[0] <= 0 {
		return 0
	}
	return equity[len(equity)-1]/equity[0] - 1
}

// MaxDrawdown is the deepest fall from a running peak as a non-positive
// fraction. A single point has no drawdown.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return math.Max(worst, -1)
}

// Sharpe is the annualized mean/stdev ratio of monthly returns, using the
// sample standard deviation. It is 0 when the deviation is 0 or undefined.
func Sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) || math.IsNaN(mean) {
		return 0
	}
	return mean / std * math.Sqrt(12)
}
