package collector

import (
	"context"
	"errors"
	"time"

	"GemSentinel/internal/model"
)

// ErrSymbolNotFound is returned when the provider does not know a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Fetcher defines the interface for fetching adjusted daily closes.
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.DailyClose, error)
	Name() string
}

// Searcher looks up instruments by name or ticker.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.Quote, error)
}
