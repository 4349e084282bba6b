package calculator

import (
	"errors"
	"math"
	"time"

	"GemSentinel/internal/model"
)

// DefaultWindow is the trailing lookback in months.
const DefaultWindow = 12

// ComputeMomentum computes the simple trailing return
// price[t]/price[t-window] - 1 for every symbol and month-end.
// Rows with fewer than window prior observations carry no values; they are
// absent, never zero.
func ComputeMomentum(prices *model.PriceSeries, window int) (*model.MomentumTable, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	n := prices.Len()
	table := &model.MomentumTable{
		Window: window,
		Dates:  make([]time.Time, n),
		Values: make([]map[string]float64, n),
	}
	for i := 0; i < n; i++ {
		table.Dates[i] = prices.Dates[i]
		row := make(map[string]float64)
		if i >= window {
			for _, s := range prices.Symbols {
				col := prices.Closes[s]
				if r, ok := trailingReturn(col, i, window); ok {
					row[s] = r
				}
			}
		}
		table.Values[i] = row
	}
	return table, nil
}

// PeriodReturn returns the one-month return of col at row i.
func PeriodReturn(col []float64, i int) (float64, bool) {
	return trailingReturn(col, i, 1)
}

func trailingReturn(col []float64, i, window int) (float64, bool) {
	if i-window < 0 || i >= len(col) {
		return 0, false
	}
	base := col[i-window]
	if !validPrice(base) || !validPrice(col[i]) {
		return 0, false
	}
	r := col[i]/base - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// MonthlyReturns returns the realized one-month return of every symbol.
// The first row is NaN.
func MonthlyReturns(prices *model.PriceSeries) map[string][]float64 {
	out := make(map[string][]float64, len(prices.Symbols))
	for _, s := range prices.Symbols {
		col := prices.Closes[s]
		rets := make([]float64, len(col))
		for i := range col {
			r, ok := PeriodReturn(col, i)
			if !ok {
				r = math.NaN()
			}
			rets[i] = r
		}
		out[s] = rets
	}
	return out
}
