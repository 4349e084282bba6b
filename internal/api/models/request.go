package models

// AnalysisRequest is the body of POST /api/v1/analysis. Omitted fields
// fall back to the configured strategy.
type AnalysisRequest struct {
	Risky         []string `json:"risky"`
	Safe          string   `json:"safe"`
	Benchmark     string   `json:"benchmark"`
	StartDate     string   `json:"start_date"` // YYYY-MM-DD
	AsOf          string   `json:"as_of"`      // YYYY-MM-DD
	WindowMonths  int      `json:"window_months"`
	Rule          string   `json:"rule"`
	DisplayMonths int      `json:"display_months"`
	RankMonths    int      `json:"rank_months"`
	UseWatchlist  bool     `json:"use_watchlist"`
}

// WatchlistRequest is the body of POST /api/v1/watchlist.
type WatchlistRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}
