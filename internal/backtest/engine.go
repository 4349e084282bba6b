package backtest

import (
	"fmt"
	"time"

	"GemSentinel/internal/calculator"
	"GemSentinel/internal/model"
)

// DefaultInitialEquity seeds the equity curves.
const DefaultInitialEquity = 1000.0

// Options configures a simulation.
type Options struct {
	Initial float64
	// Benchmark is the buy-and-hold instrument. Empty disables it.
	Benchmark string
}

// Simulate turns a lag-applied signal into realized monthly returns and
// equity curves. Equity is seeded at the first signal date; each later
// month earns the one-month return of the instrument held over it, or
// zero when nothing was held. The benchmark earns zero in months where its
// reference column has no price.
func Simulate(sig *model.Signal, prices *model.PriceSeries, opts Options) (*Result, error) {
	initial := opts.Initial
	if initial <= 0 {
		initial = DefaultInitialEquity
	}

	res := &Result{
		Benchmark:    opts.Benchmark,
		HasBenchmark: opts.Benchmark != "" && prices.HasReference(opts.Benchmark),
	}
	if sig.Len() == 0 || prices.Empty() {
		return res, nil
	}

	index := make(map[time.Time]int, prices.Len())
	for i, d := range prices.Dates {
		index[d] = i
	}

	res.Ledger = make([]LedgerRow, 0, sig.Len())
	equity, bench := initial, initial
	for k, date := range sig.Dates {
		idx, ok := index[date]
		if !ok {
			return nil, fmt.Errorf("signal date %s not in price series", date.Format("2006-01-02"))
		}

		row := LedgerRow{Date: date, Held: sig.Held[k]}
		if k > 0 {
			if row.Held != "" {
				if r, ok := calculator.PeriodReturn(prices.Column(row.Held), idx); ok {
					row.StrategyRet = r
				}
			}
			if res.HasBenchmark {
				if r, ok := calculator.PeriodReturn(prices.Reference(opts.Benchmark), idx); ok {
					row.BenchmarkRet = r
				}
			}
		}
		equity *= 1 + row.StrategyRet
		bench *= 1 + row.BenchmarkRet
		row.Equity = equity
		if res.HasBenchmark {
			row.BenchmarkEquity = bench
		}
		res.Ledger = append(res.Ledger, row)
	}
	return res, nil
}
