package analysis

import (
	"GemSentinel/internal/config"
	"GemSentinel/internal/model"
	"GemSentinel/internal/strategy"
)

// RequestFromConfig builds the default request from the configured
// instrument dictionary and strategy block.
func RequestFromConfig(cfg *config.Config) (Request, error) {
	start, err := cfg.Start()
	if err != nil {
		return Request{}, err
	}
	rule, err := strategy.ParseRule(cfg.Strategy.Rule)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Instruments:   cfg.InstrumentSet(),
		Benchmark:     cfg.Strategy.Benchmark,
		Start:         start,
		Window:        cfg.Strategy.WindowMonths,
		Rule:          rule,
		InitialEquity: cfg.Strategy.InitialEquity,
		DisplayMonths: cfg.Strategy.DisplayMonths,
		RankMonths:    cfg.Strategy.RankMonths,
		MaxFillMonths: cfg.Strategy.MaxFillMonths,
	}, nil
}

// WithRisky replaces the risky contestants, keeping the safe instrument.
func (r Request) WithRisky(risky []string) Request {
	r.Instruments = model.NewInstrumentSet(risky, r.Instruments.Safe)
	return r
}
