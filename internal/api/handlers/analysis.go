package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"GemSentinel/internal/analysis"
	"GemSentinel/internal/api/models"
	"GemSentinel/internal/model"
	"GemSentinel/internal/recorder"
	"GemSentinel/internal/strategy"
	"GemSentinel/internal/watchlist"
)

const dateLayout = "2006-01-02"

// Analyzer runs one analysis; *analysis.Service implements it.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// AnalysisHandler handles analysis requests
type AnalysisHandler struct {
	Analyzer  Analyzer
	Recorder  recorder.Recorder
	Watchlist *watchlist.Manager
	// Base is the configured request that body fields override.
	Base analysis.Request
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(an Analyzer, rec recorder.Recorder, wl *watchlist.Manager, base analysis.Request) *AnalysisHandler {
	return &AnalysisHandler{Analyzer: an, Recorder: rec, Watchlist: wl, Base: base}
}

// RunAnalysis handles POST /api/v1/analysis
func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	var body models.AnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	req, code, err := h.buildRequest(body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, code, err.Error())
		return
	}

	res, err := h.Analyzer.Run(c.Request.Context(), req)
	if err != nil {
		if isRequestError(err) {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "ANALYSIS_FAILED", err.Error())
		return
	}

	id, err := h.Recorder.RecordRun(c.Request.Context(), analysis.Snapshot(res, "api"))
	if err != nil {
		log.Error().Err(err).Msg("record run")
	}
	c.JSON(http.StatusOK, models.AnalysisResponse{ID: id, Result: res})
}

func (h *AnalysisHandler) buildRequest(body models.AnalysisRequest) (analysis.Request, string, error) {
	req := h.Base
	safe := req.Instruments.Safe
	if body.Safe != "" {
		safe = strings.ToUpper(strings.TrimSpace(body.Safe))
	}
	risky := req.Instruments.Risky
	switch {
	case body.UseWatchlist:
		if h.Watchlist == nil || !h.Watchlist.Ready() {
			return req, "WATCHLIST_NOT_READY", errors.New("the watchlist needs at least two instruments")
		}
		risky = h.Watchlist.List()
	case len(body.Risky) > 0:
		risky = make([]string, len(body.Risky))
		for i, s := range body.Risky {
			risky[i] = strings.ToUpper(strings.TrimSpace(s))
		}
	}
	req.Instruments = model.NewInstrumentSet(risky, safe)

	if body.Benchmark != "" {
		req.Benchmark = strings.ToUpper(strings.TrimSpace(body.Benchmark))
	}
	if body.StartDate != "" {
		t, err := time.Parse(dateLayout, body.StartDate)
		if err != nil {
			return req, "INVALID_DATE", errors.New("start_date must be YYYY-MM-DD")
		}
		req.Start = t
	}
	if body.AsOf != "" {
		t, err := time.Parse(dateLayout, body.AsOf)
		if err != nil {
			return req, "INVALID_DATE", errors.New("as_of must be YYYY-MM-DD")
		}
		req.AsOf = t
	}
	if body.WindowMonths != 0 {
		req.Window = body.WindowMonths
	}
	if body.Rule != "" {
		rule, err := strategy.ParseRule(body.Rule)
		if err != nil {
			return req, "INVALID_RULE", err
		}
		req.Rule = rule
	}
	if body.DisplayMonths != 0 {
		req.DisplayMonths = body.DisplayMonths
	}
	if body.RankMonths != 0 {
		req.RankMonths = body.RankMonths
	}
	return req, "", nil
}

func isRequestError(err error) bool {
	return errors.Is(err, analysis.ErrNoInstruments) ||
		errors.Is(err, analysis.ErrNoSafeInstrument) ||
		errors.Is(err, analysis.ErrInvalidWindow)
}
