// Package analysis runs one complete dual-momentum analysis: momentum,
// lagged signal, simulated equity, summary metrics and rank history for a
// single request.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"GemSentinel/internal/backtest"
	"GemSentinel/internal/calculator"
	"GemSentinel/internal/model"
	"GemSentinel/internal/strategy"
)

var (
	ErrNoInstruments    = errors.New("at least one risky instrument is required")
	ErrNoSafeInstrument = errors.New("a safe instrument is required")
	ErrInvalidWindow    = errors.New("window must be a positive number of months")
)

// Status describes whether a result carries a signal.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusNoSafeData       Status = "no_safe_data"
)

const (
	DefaultDisplayMonths = 36
	DefaultRankMonths    = 6
)

// Request describes one analysis. Zero values fall back to defaults.
type Request struct {
	Instruments model.InstrumentSet
	Benchmark   string
	Start       time.Time
	// AsOf bounds the data used; the last month-end on or before it is the
	// decision date. Zero means all available data.
	AsOf time.Time

	Window        int
	Rule          strategy.Rule
	InitialEquity float64
	// DisplayMonths limits the metrics window and returned history.
	// Negative shows everything.
	DisplayMonths int
	RankMonths    int
	MaxFillMonths int
}

// WithDefaults returns a copy with unset fields filled in.
func (r Request) WithDefaults() Request {
	r.Instruments = model.NewInstrumentSet(r.Instruments.Risky, r.Instruments.Safe)
	if r.Window == 0 {
		r.Window = calculator.DefaultWindow
	}
	if r.Rule == "" {
		r.Rule = strategy.RuleDual
	}
	if r.InitialEquity <= 0 {
		r.InitialEquity = backtest.DefaultInitialEquity
	}
	if r.DisplayMonths == 0 {
		r.DisplayMonths = DefaultDisplayMonths
	}
	if r.RankMonths <= 0 {
		r.RankMonths = DefaultRankMonths
	}
	if r.MaxFillMonths == 0 {
		r.MaxFillMonths = calculator.DefaultMaxFillMonths
	}
	return r
}

// Validate reports request errors. Data problems are not errors.
func (r Request) Validate() error {
	if r.Instruments.Safe == "" {
		return ErrNoSafeInstrument
	}
	if len(r.Instruments.Risky) == 0 {
		return ErrNoInstruments
	}
	if r.Window < 0 {
		return ErrInvalidWindow
	}
	if _, err := strategy.ParseRule(string(r.Rule)); err != nil {
		return err
	}
	return nil
}

// Symbols returns every identifier that must be fetched, sorted.
func (r Request) Symbols() []string {
	all := r.Instruments.All()
	if r.Benchmark != "" && !contains(all, r.Benchmark) {
		all = append(all, r.Benchmark)
		sort.Strings(all)
	}
	return all
}

// ReferenceSymbols returns the benchmark when it is not one of the
// instruments. It is aligned to the instruments' dates without gating them.
func (r Request) ReferenceSymbols() []string {
	if r.Benchmark == "" || contains(r.Instruments.All(), r.Benchmark) {
		return nil
	}
	return []string{r.Benchmark}
}

// Result is the complete outcome of one analysis.
type Result struct {
	Status      Status              `json:"status"`
	Rule        strategy.Rule       `json:"rule"`
	Window      int                 `json:"window_months"`
	Instruments model.InstrumentSet `json:"instruments"`
	Benchmark   string              `json:"benchmark,omitempty"`
	// Missing lists requested instruments without usable prices.
	Missing []string `json:"missing"`

	// AsOf is the last month-end in the data.
	AsOf time.Time `json:"as_of"`
	// Current is the decision at AsOf, i.e. the position for next month.
	Current *model.Decision `json:"current,omitempty"`

	Decisions []model.Decision     `json:"decisions"`
	Ledger    []backtest.LedgerRow `json:"ledger"`
	// Summary covers the display window, Overall the full history.
	Summary backtest.Summary `json:"summary"`
	Overall backtest.Summary `json:"overall"`

	Ranks []model.RankSnapshot `json:"ranks"`
	// Momentum and LastReturn hold the latest trailing and one-month
	// returns per instrument.
	Momentum   map[string]float64 `json:"momentum"`
	LastReturn map[string]float64 `json:"last_return"`
}

// Analyze runs the pipeline over already cleaned monthly prices. It holds
// no state: identical inputs give identical results.
func Analyze(prices *model.PriceSeries, req Request) (*Result, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if prices == nil {
		prices = &model.PriceSeries{}
	}
	if !req.AsOf.IsZero() {
		prices = prices.Until(calculator.MonthEnd(req.AsOf))
	}

	res := &Result{
		Status:     StatusInsufficientData,
		Rule:       req.Rule,
		Window:     req.Window,
		Missing:    []string{},
		Momentum:   map[string]float64{},
		LastReturn: map[string]float64{},
	}

	var risky []string
	for _, id := range req.Instruments.Risky {
		if prices.Has(id) {
			risky = append(risky, id)
		}
	}
	for _, id := range req.Symbols() {
		if !prices.HasReference(id) {
			res.Missing = append(res.Missing, id)
		}
	}
	active := model.NewInstrumentSet(risky, req.Instruments.Safe)
	res.Instruments = active
	if req.Benchmark != "" && prices.HasReference(req.Benchmark) {
		res.Benchmark = req.Benchmark
	}

	if prices.Empty() {
		return res, nil
	}
	res.AsOf = prices.Dates[prices.Len()-1]
	if !prices.Has(active.Safe) {
		res.Status = StatusNoSafeData
		return res, nil
	}
	if len(active.Risky) == 0 || prices.Len() <= req.Window {
		return res, nil
	}

	mom, err := calculator.ComputeMomentum(prices, req.Window)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	last := mom.Len() - 1
	for id, v := range mom.Values[last] {
		res.Momentum[id] = v
	}
	for id, rets := range calculator.MonthlyReturns(prices) {
		if r := rets[len(rets)-1]; !math.IsNaN(r) {
			res.LastReturn[id] = r
		}
	}

	sig := strategy.ComputeSignal(mom, active, req.Rule)
	first := sig.FirstDecided()
	if first < 0 {
		return res, nil
	}
	if cur, ok := sig.Current(); ok {
		res.Current = &cur
	}
	sig = sig.Slice(first, sig.Len())

	sim, err := backtest.Simulate(sig, prices, backtest.Options{
		Initial:   req.InitialEquity,
		Benchmark: res.Benchmark,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	from := 0
	if req.DisplayMonths > 0 && sim.Len() > req.DisplayMonths+1 {
		from = sim.Len() - req.DisplayMonths - 1
	}
	window := backtest.Window{From: sim.Ledger[from].Date}
	res.Summary = backtest.Summarize(sim, window)
	res.Overall = backtest.Summarize(sim, backtest.Window{})
	res.Decisions = sig.Decisions[from:]
	res.Ledger = sim.Ledger[from:]

	rankFrom := len(mom.Dates) - req.RankMonths
	if rankFrom < req.Window {
		rankFrom = req.Window
	}
	res.Ranks = strategy.RankHistory(mom, active.All(), mom.Dates[rankFrom:])

	res.Status = StatusOK
	return res, nil
}

func contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}
