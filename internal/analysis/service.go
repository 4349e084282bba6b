package analysis

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"GemSentinel/internal/calculator"
	"GemSentinel/internal/collector"
	"GemSentinel/internal/metrics"
	"GemSentinel/internal/model"
	"GemSentinel/internal/recorder"
)

// DefaultCacheTTL is how long fetched daily closes are reused.
const DefaultCacheTTL = time.Hour

// Service fetches prices for a request and runs Analyze on them.
type Service struct {
	Collector *collector.Collector
	Metrics   *metrics.Registry
	Now       func() time.Time

	cache *priceCache
}

// NewService creates a Service that caches fetched series for ttl.
func NewService(c *collector.Collector, m *metrics.Registry, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		Collector: c,
		Metrics:   m,
		Now:       time.Now,
		cache:     newPriceCache(ttl),
	}
}

// Run fetches, cleans and analyzes. Instruments that cannot be fetched are
// reported in Result.Missing; only an invalid request is an error.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	started := s.Now()
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	raw, missing := s.fetch(ctx, req.Symbols(), req.Start)
	prices, noData := calculator.BuildSeries(raw, calculator.SeriesOptions{
		MaxFillMonths: req.MaxFillMonths,
		AsOf:          req.AsOf,
		Reference:     req.ReferenceSymbols(),
	})

	res, err := Analyze(prices, req)
	if err != nil {
		s.Metrics.ObserveAnalysis("error", s.Now().Sub(started))
		return nil, err
	}
	res.Missing = mergeSorted(res.Missing, missing, noData)
	s.Metrics.ObserveAnalysis(string(res.Status), s.Now().Sub(started))

	ev := log.Info().
		Str("status", string(res.Status)).
		Str("rule", string(res.Rule)).
		Strs("missing", res.Missing).
		Dur("took", s.Now().Sub(started))
	if res.Current != nil {
		ev = ev.Str("holding", res.Current.Instrument).Str("reason", string(res.Current.Reason))
	}
	ev.Msg("analysis complete")
	return res, nil
}

func (s *Service) fetch(ctx context.Context, symbols []string, start time.Time) (map[string][]model.DailyClose, []string) {
	raw := make(map[string][]model.DailyClose, len(symbols))
	var todo []string
	for _, sym := range symbols {
		if bars, ok := s.cache.get(sym, start, s.Now()); ok {
			raw[sym] = bars
			continue
		}
		todo = append(todo, sym)
	}
	if len(todo) == 0 {
		return raw, nil
	}

	fetched, missing := s.Collector.Collect(ctx, todo, start, s.Now())
	for sym, bars := range fetched {
		s.cache.put(sym, start, bars, s.Now())
		raw[sym] = bars
	}
	return raw, missing
}

// Snapshot converts a result into the record persisted for a run.
func Snapshot(res *Result, source string) *recorder.RunSnapshot {
	snap := &recorder.RunSnapshot{
		Source:    source,
		AsOf:      res.AsOf,
		Status:    string(res.Status),
		Rule:      string(res.Rule),
		Window:    res.Window,
		Risky:     res.Instruments.Risky,
		Safe:      res.Instruments.Safe,
		Benchmark: res.Benchmark,
		Missing:   res.Missing,
		Current:   res.Current,
		Decisions: res.Decisions,
		Ranks:     res.Ranks,

		TotalReturn: res.Summary.Strategy.TotalReturn,
		MaxDrawdown: res.Summary.Strategy.MaxDrawdown,
		Sharpe:      res.Summary.Strategy.Sharpe,
	}
	if b := res.Summary.Benchmark; b != nil {
		v := b.TotalReturn
		snap.BenchmarkReturn = &v
	}
	return snap
}

func mergeSorted(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range lists {
		for _, s := range l {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

type cacheEntry struct {
	bars    []model.DailyClose
	expires time.Time
}

// priceCache keeps fetched daily closes per symbol and start date.
type priceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newPriceCache(ttl time.Duration) *priceCache {
	return &priceCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func cacheKey(symbol string, start time.Time) string {
	return strings.ToUpper(symbol) + "|" + start.Format("2006-01-02")
}

func (c *priceCache) get(symbol string, start, now time.Time) ([]model.DailyClose, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey(symbol, start)]
	if !ok {
		return nil, false
	}
	if now.After(e.expires) {
		delete(c.entries, cacheKey(symbol, start))
		return nil, false
	}
	return e.bars, true
}

func (c *priceCache) put(symbol string, start time.Time, bars []model.DailyClose, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(symbol, start)] = cacheEntry{bars: bars, expires: now.Add(c.ttl)}
}
