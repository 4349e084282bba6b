package backtest

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GemSentinel/internal/model"
)

func monthEnds(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2022, time.Month(2+i), 0, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func fixture() (*model.Signal, *model.PriceSeries) {
	dates := monthEnds(4)
	prices := &model.PriceSeries{
		Dates:   dates,
		Symbols: []string{"A", "S"},
		Closes: map[string][]float64{
			"A": {100, 110, 99, 108.9},
			"S": {50, 50.5, 51, 51},
		},
	}
	sig := &model.Signal{
		Dates: dates,
		Decisions: []model.Decision{
			{Date: dates[0], Decided: true, Instrument: "A"},
			{Date: dates[1], Decided: true, Instrument: "S"},
			{Date: dates[2], Decided: false},
			{Date: dates[3], Decided: true, Instrument: "A"},
		},
		Held: []string{"", "A", "S", ""},
	}
	return sig, prices
}

func TestSimulate_AppliesHeldReturnsWithLag(t *testing.T) {
	sig, prices := fixture()
	res, err := Simulate(sig, prices, Options{Benchmark: "A"})
	require.NoError(t, err)
	require.Equal(t, 4, res.Len())

	rets := res.StrategyReturns()
	assert.Equal(t, 0.0, rets[0], "seed month earns nothing")
	assert.InDelta(t, 0.10, rets[1], 1e-12, "A held over its +10% month")
	assert.InDelta(t, 51.0/50.5-1, rets[2], 1e-12, "S held, not A's -10%")
	assert.Equal(t, 0.0, rets[3], "undefined holding earns zero")

	eq := res.Equity()
	assert.Equal(t, 1000.0, eq[0])
	assert.InDelta(t, 1100.0, eq[1], 1e-9)
	assert.InDelta(t, 1100.0*51.0/50.5, eq[2], 1e-9)
	assert.InDelta(t, eq[2], eq[3], 1e-12)

	beq := res.BenchmarkEquity()
	require.NotNil(t, beq)
	assert.InDelta(t, 1089.0, beq[3], 1e-9)
}

func TestSimulate_SameMonthReturnIsNeverUsed(t *testing.T) {
	sig, prices := fixture()
	// Deciding A at row 1 must not earn A's row-1 return.
	sig.Held = []string{"", "", "A", ""}
	res, err := Simulate(sig, prices, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Ledger[1].StrategyRet)
	assert.InDelta(t, -0.10, res.Ledger[2].StrategyRet, 1e-12)
}

func TestSimulate_NoBenchmarkWhenMissing(t *testing.T) {
	sig, prices := fixture()
	res, err := Simulate(sig, prices, Options{Benchmark: "NOPE", Initial: 500})
	require.NoError(t, err)
	assert.False(t, res.HasBenchmark)
	assert.Nil(t, res.BenchmarkEquity())
	assert.Equal(t, 500.0, res.Equity()[0])
}

func TestSimulate_ReferenceBenchmarkWithGaps(t *testing.T) {
	sig, prices := fixture()
	prices.Refs = map[string][]float64{"B": {math.NaN(), math.NaN(), 200, 220}}

	res, err := Simulate(sig, prices, Options{Benchmark: "B"})
	require.NoError(t, err)
	assert.True(t, res.HasBenchmark)
	beq := res.BenchmarkEquity()
	require.Len(t, beq, 4)
	assert.Equal(t, []float64{1000, 1000, 1000}, beq[:3])
	assert.InDelta(t, 1100, beq[3], 1e-9)
}

func TestSimulate_EmptyInput(t *testing.T) {
	res, err := Simulate(&model.Signal{}, &model.PriceSeries{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	s := Summarize(res, Window{})
	assert.Equal(t, Metrics{}, s.Strategy)
}

func TestSimulate_MisalignedDates(t *testing.T) {
	sig, prices := fixture()
	sig.Dates = append([]time.Time(nil), sig.Dates...)
	sig.Dates[2] = sig.Dates[2].AddDate(0, 0, -3)
	_, err := Simulate(sig, prices, Options{})
	assert.Error(t, err)
}

func TestSimulate_EquityNeverNegative(t *testing.T) {
	dates := monthEnds(4)
	prices := &model.PriceSeries{
		Dates:   dates,
		Symbols: []string{"A"},
		Closes:  map[string][]float64{"A": {100, 1e-9, 1e-12, 5}},
	}
	sig := &model.Signal{Dates: dates, Decisions: make([]model.Decision, 4), Held: []string{"", "A", "A", "A"}}
	res, err := Simulate(sig, prices, Options{})
	require.NoError(t, err)
	for _, v := range res.Equity() {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	dd := MaxDrawdown(res.Equity())
	assert.LessOrEqual(t, dd, 0.0)
	assert.GreaterOrEqual(t, dd, -1.0)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		equity []float64
		want   float64
	}{
		{nil, 0},
		{[]float64{1000}, 0},
		{[]float64{1000, 1100, 1200}, 0},
		{[]float64{1000, 1200, 900, 1300, 1040}, -0.25},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, MaxDrawdown(tt.equity), 1e-12, "%v", tt.equity)
	}
}

func TestSharpe(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe([]float64{0, 0, 0, 0}), "flat curve")
	assert.Equal(t, 0.0, Sharpe([]float64{0.01, 0.01, 0.01}), "zero deviation")
	assert.Equal(t, 0.0, Sharpe([]float64{0.02}), "single return")

	rets := []float64{0.01, 0.03, -0.02, 0.04}
	mean := 0.015
	var ss float64
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / 3)
	assert.InDelta(t, mean/std*math.Sqrt(12), Sharpe(rets), 1e-12)
	assert.False(t, math.IsNaN(Sharpe(nil)))
}

func TestSummarize_UsesWindowOnly(t *testing.T) {
	sig, prices := fixture()
	res, err := Simulate(sig, prices, Options{Benchmark: "A"})
	require.NoError(t, err)

	all := Summarize(res, Window{})
	assert.Equal(t, 3, all.Strategy.Months)
	assert.InDelta(t, res.Ledger[3].Equity/1000-1, all.Strategy.TotalReturn, 1e-12)

	w := Window{From: res.Ledger[2].Date}
	tail := Summarize(res, w)
	assert.Equal(t, res.Ledger[2].Date, tail.Strategy.Start)
	assert.Equal(t, 1, tail.Strategy.Months)
	assert.InDelta(t, 0.0, tail.Strategy.TotalReturn, 1e-12)
	assert.Equal(t, 0.0, tail.Strategy.Sharpe)
	require.NotNil(t, tail.Benchmark)
	assert.InDelta(t, 0.10, tail.Benchmark.TotalReturn, 1e-12)

	one := Summarize(res, Window{From: res.Ledger[1].Date, To: res.Ledger[1].Date})
	assert.Equal(t, 0.0, one.Strategy.MaxDrawdown)
	assert.Equal(t, 0.0, one.Strategy.TotalReturn)
}

func TestEncodeLedgerCSV(t *testing.T) {
	sig, prices := fixture()
	res, err := Simulate(sig, prices, Options{Benchmark: "A"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeLedgerCSV(&buf, res))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "date,held,strategy_ret,equity,benchmark_ret,benchmark_equity", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "2022-02-28,A,0.100000,1100.000000"), lines[2])
}
