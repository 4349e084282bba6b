package backtest

import "time"

// LedgerRow is one month of simulated output.
// StrategyRet is the realized one-month return of Held over
// (previous date, Date]; Held was decided at the previous date.
type LedgerRow struct {
	Date time.Time `json:"date"`
	Held string    `json:"held,omitempty"`

	StrategyRet float64 `json:"strategy_ret"`
	Equity      float64 `json:"equity"`

	BenchmarkRet    float64 `json:"benchmark_ret"`
	BenchmarkEquity float64 `json:"benchmark_equity"`
}

// Result is the output of Simulate.
type Result struct {
	Ledger       []LedgerRow
	Benchmark    string
	HasBenchmark bool
}

// Len returns the number of ledger rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Ledger)
}

// Equity returns the strategy equity curve.
func (r *Result) Equity() []float64 {
	out := make([]float64, r.Len())
	for i, row := range r.Ledger {
		out[i] = row.Equity
	}
	return out
}

// BenchmarkEquity returns the buy-and-hold curve, or nil without a benchmark.
func (r *Result) BenchmarkEquity() []float64 {
	if !r.HasBenchmark {
		return nil
	}
	out := make([]float64, r.Len())
	for i, row := range r.Ledger {
		out[i] = row.BenchmarkEquity
	}
	return out
}

// StrategyReturns returns the monthly strategy returns.
func (r *Result) StrategyReturns() []float64 {
	out := make([]float64, r.Len())
	for i, row := range r.Ledger {
		out[i] = row.StrategyRet
	}
	return out
}

// BenchmarkReturns returns the monthly benchmark returns, or nil.
func (r *Result) BenchmarkReturns() []float64 {
	if !r.HasBenchmark {
		return nil
	}
	out := make([]float64, r.Len())
	for i, row := range r.Ledger {
		out[i] = row.BenchmarkRet
	}
	return out
}
