package analysis

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GemSentinel/internal/calculator"
	"GemSentinel/internal/collector"
	"GemSentinel/internal/config"
	"GemSentinel/internal/metrics"
	"GemSentinel/internal/model"
	"GemSentinel/internal/strategy"
)

// growth builds n month-ends of prices compounding at a fixed monthly rate.
func growth(n int, rates map[string]float64) *model.PriceSeries {
	ps := &model.PriceSeries{Closes: map[string][]float64{}}
	for i := 0; i < n; i++ {
		ps.Dates = append(ps.Dates, calculator.MonthEnd(time.Date(2015, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)))
	}
	for _, s := range []string{"A", "B", "S", "X"} {
		g, ok := rates[s]
		if !ok {
			continue
		}
		ps.Symbols = append(ps.Symbols, s)
		col := make([]float64, n)
		for i := range col {
			col[i] = 100 * math.Pow(1+g, float64(i))
		}
		ps.Closes[s] = col
	}
	return ps
}

func request(risky ...string) Request {
	return Request{Instruments: model.InstrumentSet{Risky: risky, Safe: "S"}}
}

func TestAnalyze_HoldsLeadingRiskyInstrument(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "B": 0.005, "S": 0.001})
	req := request("A", "B")
	req.Benchmark = "B"

	res, err := Analyze(prices, req)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, strategy.RuleDual, res.Rule)
	assert.Empty(t, res.Missing)
	assert.Equal(t, prices.Dates[23], res.AsOf)

	require.NotNil(t, res.Current)
	assert.Equal(t, "A", res.Current.Instrument)
	assert.Equal(t, model.ReasonRiskyLeads, res.Current.Reason)

	// Decisions start at the first full window; the first ledger month
	// earns nothing because nothing was held before it.
	require.Len(t, res.Ledger, 12)
	assert.Equal(t, prices.Dates[12], res.Ledger[0].Date)
	assert.Empty(t, res.Ledger[0].Held)
	assert.Equal(t, "A", res.Ledger[1].Held)

	assert.InDelta(t, math.Pow(1.01, 11)-1, res.Summary.Strategy.TotalReturn, 1e-9)
	require.NotNil(t, res.Summary.Benchmark)
	assert.InDelta(t, math.Pow(1.005, 11)-1, res.Summary.Benchmark.TotalReturn, 1e-9)
	assert.InDelta(t, math.Pow(1.01, 12)-1, res.Momentum["A"], 1e-9)
	assert.InDelta(t, 0.001, res.LastReturn["S"], 1e-9)
}

func TestAnalyze_AbsoluteFilter(t *testing.T) {
	prices := growth(24, map[string]float64{"A": -0.001, "B": -0.02, "S": -0.005})

	res, err := Analyze(prices, request("A", "B"))
	require.NoError(t, err)
	require.NotNil(t, res.Current)
	assert.Equal(t, "S", res.Current.Instrument)
	assert.Equal(t, model.ReasonNotPositive, res.Current.Reason)

	req := request("A", "B")
	req.Rule = strategy.RuleRelative
	res, err = Analyze(prices, req)
	require.NoError(t, err)
	assert.Equal(t, strategy.RuleRelative, res.Rule)
	assert.Equal(t, "A", res.Current.Instrument)
}

func TestAnalyze_ShortSeriesIsInsufficient(t *testing.T) {
	prices := growth(4, map[string]float64{"A": 0.01, "B": 0.01, "S": 0.01})
	res, err := Analyze(prices, request("A", "B"))
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Nil(t, res.Current)
	assert.Empty(t, res.Ledger)
	assert.Empty(t, res.Ranks)
}

func TestAnalyze_EmptyPrices(t *testing.T) {
	res, err := Analyze(&model.PriceSeries{}, request("A"))
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Equal(t, []string{"A", "S"}, res.Missing)

	res, err = Analyze(nil, request("A"))
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
}

func TestAnalyze_MissingSafeInstrument(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "B": 0.005})
	res, err := Analyze(prices, request("A", "B"))
	require.NoError(t, err)
	assert.Equal(t, StatusNoSafeData, res.Status)
	assert.Equal(t, []string{"S"}, res.Missing)
	assert.Nil(t, res.Current, "never defaults to an arbitrary instrument")
}

func TestAnalyze_MissingRiskyInstrumentIsExcluded(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "S": 0.001})
	req := request("A", "B")
	req.Benchmark = "X"
	res, err := Analyze(prices, req)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"B", "X"}, res.Missing)
	assert.Equal(t, []string{"A"}, res.Instruments.Risky)
	assert.Empty(t, res.Benchmark)
	assert.Nil(t, res.Summary.Benchmark)
}

func TestAnalyze_DisplayWindow(t *testing.T) {
	prices := growth(60, map[string]float64{"A": 0.01, "B": 0.005, "S": 0.001})
	req := request("A", "B")
	req.DisplayMonths = 12

	res, err := Analyze(prices, req)
	require.NoError(t, err)
	assert.Len(t, res.Ledger, 13)
	assert.Len(t, res.Decisions, 13)
	assert.Equal(t, 12, res.Summary.Strategy.Months)
	assert.Equal(t, 47, res.Overall.Strategy.Months)
	assert.InDelta(t, math.Pow(1.01, 12)-1, res.Summary.Strategy.TotalReturn, 1e-9)

	req.DisplayMonths = -1
	res, err = Analyze(prices, req)
	require.NoError(t, err)
	assert.Len(t, res.Ledger, 48)
}

func TestAnalyze_RankHistory(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "B": 0.005, "S": 0.001})
	req := request("A", "B")
	req.RankMonths = 3

	res, err := Analyze(prices, req)
	require.NoError(t, err)
	require.Len(t, res.Ranks, 3)
	last := res.Ranks[2]
	assert.Equal(t, prices.Dates[23], last.Date)
	require.Len(t, last.Entries, 3, "safe instrument is ranked too")
	assert.Equal(t, "A", last.Entries[0].Instrument)
	assert.Equal(t, "B", last.Entries[1].Instrument)
	assert.Equal(t, "S", last.Entries[2].Instrument)
}

func TestAnalyze_AsOfBoundsTheDecision(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "B": 0.005, "S": 0.001})
	req := request("A", "B")
	req.AsOf = prices.Dates[17].AddDate(0, 0, -3)

	res, err := Analyze(prices, req)
	require.NoError(t, err)
	assert.Equal(t, prices.Dates[17], res.AsOf)
	assert.Equal(t, prices.Dates[17], res.Current.Date)
	assert.Len(t, res.Ledger, 6)
}

func TestAnalyze_Idempotent(t *testing.T) {
	prices := growth(36, map[string]float64{"A": 0.01, "B": 0.012, "S": 0.001})
	req := request("A", "B")
	req.Benchmark = "A"
	first, err := Analyze(prices, req)
	require.NoError(t, err)
	second, err := Analyze(prices, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyze_InvalidRequests(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "S": 0.001})
	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"no safe", Request{Instruments: model.InstrumentSet{Risky: []string{"A"}}}, ErrNoSafeInstrument},
		{"no risky", Request{Instruments: model.InstrumentSet{Safe: "S"}}, ErrNoInstruments},
		{"only safe as risky", Request{Instruments: model.InstrumentSet{Risky: []string{"S"}, Safe: "S"}}, ErrNoInstruments},
		{"negative window", Request{Instruments: model.InstrumentSet{Risky: []string{"A"}, Safe: "S"}, Window: -1}, ErrInvalidWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Analyze(prices, tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	req := request("A")
	req.Rule = "momentum"
	_, err := Analyze(prices, req)
	assert.Error(t, err)
}

func TestService_RunCachesAndReportsMissing(t *testing.T) {
	start := time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC)
	closes := func(g float64) []model.DailyClose {
		vals := make([]float64, 24)
		for i := range vals {
			vals[i] = 100 * math.Pow(1+g, float64(i))
		}
		return collector.GenerateMonthlyCloses(start, vals...)
	}
	mock := &collector.MockFetcher{Closes: map[string][]model.DailyClose{
		"A": closes(0.01),
		"B": closes(0.005),
		"S": closes(0.001),
	}}
	reg := metrics.New()
	svc := NewService(collector.NewCollector(mock), reg, time.Hour)
	svc.Now = func() time.Time { return time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC) }

	req := request("A", "B", "X")
	req.Start = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"X"}, res.Missing)
	assert.Equal(t, "A", res.Current.Instrument)
	assert.Equal(t, 4, mock.Calls)

	_, err = svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 5, mock.Calls, "only the missing symbol is fetched again")
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.AnalysisRuns.WithLabelValues("ok")))

	_, err = svc.Run(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrNoSafeInstrument))
}

func TestService_ShortBenchmarkKeepsStrategyHistory(t *testing.T) {
	start := time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC)
	closes := func(from time.Time, n int, g float64) []model.DailyClose {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = 100 * math.Pow(1+g, float64(i))
		}
		return collector.GenerateMonthlyCloses(from, vals...)
	}
	mock := &collector.MockFetcher{Closes: map[string][]model.DailyClose{
		"A":  closes(start, 24, 0.01),
		"B":  closes(start, 24, 0.005),
		"S":  closes(start, 24, 0.001),
		"BM": closes(start.AddDate(0, 18, 0), 6, 0.02),
	}}
	svc := NewService(collector.NewCollector(mock), metrics.New(), time.Hour)
	svc.Now = func() time.Time { return time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC) }

	req := request("A", "B")
	req.Benchmark = "BM"
	req.Start = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Empty(t, res.Missing)
	assert.Equal(t, "BM", res.Benchmark)
	require.Len(t, res.Ledger, 12, "benchmark history must not shorten the strategy")
	assert.NotContains(t, res.Momentum, "BM")

	// Flat until the benchmark has two consecutive prices.
	assert.Equal(t, 1000.0, res.Ledger[0].BenchmarkEquity)
	assert.Equal(t, 1000.0, res.Ledger[6].BenchmarkEquity)
	assert.InDelta(t, 1000*math.Pow(1.02, 5), res.Ledger[11].BenchmarkEquity, 1e-9)
	require.NotNil(t, res.Summary.Benchmark)
}

func TestSnapshot(t *testing.T) {
	prices := growth(24, map[string]float64{"A": 0.01, "B": 0.005, "S": 0.001})
	req := request("A", "B")
	req.Benchmark = "B"
	res, err := Analyze(prices, req)
	require.NoError(t, err)

	snap := Snapshot(res, "cli")
	assert.Equal(t, "cli", snap.Source)
	assert.Equal(t, "ok", snap.Status)
	assert.Equal(t, "dual", snap.Rule)
	assert.Equal(t, []string{"A", "B"}, snap.Risky)
	assert.Equal(t, "A", snap.Current.Instrument)
	assert.Len(t, snap.Decisions, len(res.Decisions))
	require.NotNil(t, snap.BenchmarkReturn)
	assert.InDelta(t, res.Summary.Benchmark.TotalReturn, *snap.BenchmarkReturn, 1e-12)
}

func TestRequestFromConfig(t *testing.T) {
	cfg := &config.Config{Instruments: map[string]config.InstrumentConfig{
		"A": {Role: model.RoleRisky},
		"B": {Role: model.RoleRisky},
		"S": {Role: model.RoleSafe},
	}}
	cfg.Strategy.StartDate = "2016-03-01"
	cfg.Strategy.Rule = "relative"
	cfg.Strategy.Benchmark = "A"
	cfg.Strategy.WindowMonths = 6

	req, err := RequestFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, req.Instruments.Risky)
	assert.Equal(t, "S", req.Instruments.Safe)
	assert.Equal(t, strategy.RuleRelative, req.Rule)
	assert.Equal(t, 6, req.Window)
	assert.Equal(t, time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC), req.Start)

	swapped := req.WithRisky([]string{"C", "S", "C"})
	assert.Equal(t, []string{"C"}, swapped.Instruments.Risky)
	assert.Equal(t, "S", swapped.Instruments.Safe)

	cfg.Strategy.StartDate = "nope"
	_, err = RequestFromConfig(cfg)
	assert.Error(t, err)
}
