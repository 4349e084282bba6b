package models

import (
	"GemSentinel/internal/analysis"
	"GemSentinel/internal/model"
	"GemSentinel/internal/recorder"
)

// AnalysisResponse is a complete analysis result plus its run ID.
type AnalysisResponse struct {
	ID string `json:"id,omitempty"`
	*analysis.Result
}

// WatchlistResponse lists the selected instruments.
type WatchlistResponse struct {
	Symbols []string `json:"symbols"`
	Ready   bool     `json:"ready"`
	Changed bool     `json:"changed"`
}

// SearchResponse holds instrument search hits.
type SearchResponse struct {
	Query  string        `json:"query"`
	Quotes []model.Quote `json:"quotes"`
}

// RunsResponse lists recorded analysis runs.
type RunsResponse struct {
	Runs []recorder.RunRecord `json:"runs"`
}

// SignalsResponse is the decision history of one run.
type SignalsResponse struct {
	RunID   string                  `json:"run_id"`
	Signals []recorder.SignalRecord `json:"signals"`
}

// InstrumentsResponse is the configured instrument dictionary.
type InstrumentsResponse struct {
	Instruments []model.Instrument `json:"instruments"`
	Safe        string             `json:"safe"`
	Benchmark   string             `json:"benchmark,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
