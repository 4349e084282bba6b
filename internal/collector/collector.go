package collector

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"GemSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Closes map[string][]model.DailyClose
	Errs   map[string]error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, symbol string, start, end time.Time) ([]model.DailyClose, error) {
	m.Calls++
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Closes[symbol]
	if !ok {
		return nil, ErrSymbolNotFound
	}
	out := make([]model.DailyClose, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(start) || (!end.IsZero() && b.Time.After(end)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// GenerateMonthlyCloses builds one close per month from start, for mocks.
func GenerateMonthlyCloses(start time.Time, closes ...float64) []model.DailyClose {
	bars := make([]model.DailyClose, len(closes))
	for i, c := range closes {
		bars[i] = model.DailyClose{Time: start.AddDate(0, i, 0), Close: c}
	}
	return bars
}

// Collector orchestrates price fetching for a set of symbols.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches daily closes for every symbol. A symbol that fails or
// returns no data is reported in missing instead of failing the call.
func (c *Collector) Collect(ctx context.Context, symbols []string, start, end time.Time) (map[string][]model.DailyClose, []string) {
	uniq := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if s != "" && !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	sort.Strings(uniq)

	raw := make(map[string][]model.DailyClose, len(uniq))
	var missing []string
	for _, s := range uniq {
		bars, err := c.Fetcher.FetchDailyCloses(ctx, s, start, end)
		switch {
		case errors.Is(err, ErrSymbolNotFound):
			log.Warn().Str("symbol", s).Str("source", c.Fetcher.Name()).Msg("unknown symbol, excluded")
			missing = append(missing, s)
		case err != nil:
			log.Warn().Err(err).Str("symbol", s).Str("source", c.Fetcher.Name()).Msg("fetch failed, excluded")
			missing = append(missing, s)
		case len(bars) == 0:
			log.Warn().Str("symbol", s).Str("source", c.Fetcher.Name()).Msg("no prices returned, excluded")
			missing = append(missing, s)
		default:
			raw[s] = bars
		}
	}
	return raw, missing
}
