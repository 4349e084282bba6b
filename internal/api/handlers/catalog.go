package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"GemSentinel/internal/api/models"
	"GemSentinel/internal/collector"
	"GemSentinel/internal/model"
	"GemSentinel/internal/recorder"
)

const maxRunsLimit = 200

// CatalogHandler serves search, instrument and run history lookups
type CatalogHandler struct {
	Searcher    collector.Searcher
	Recorder    recorder.Recorder
	Instruments []model.Instrument
	Safe        string
	Benchmark   string
}

// Search handles GET /api/v1/search?q=
func (h *CatalogHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "query parameter q is required")
		return
	}
	if h.Searcher == nil {
		abortWithError(c, http.StatusNotImplemented, "SEARCH_UNAVAILABLE", "search is not available with the configured data source")
		return
	}
	quotes, err := h.Searcher.Search(c.Request.Context(), q, 10)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "SEARCH_FAILED", err.Error())
		return
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	c.JSON(http.StatusOK, models.SearchResponse{Query: q, Quotes: quotes})
}

// ListInstruments handles GET /api/v1/instruments
func (h *CatalogHandler) ListInstruments(c *gin.Context) {
	c.JSON(http.StatusOK, models.InstrumentsResponse{
		Instruments: h.Instruments,
		Safe:        h.Safe,
		Benchmark:   h.Benchmark,
	})
}

// ListRuns handles GET /api/v1/runs?limit=
func (h *CatalogHandler) ListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	runs, err := h.Recorder.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	c.JSON(http.StatusOK, models.RunsResponse{Runs: runs})
}

// RunSignals handles GET /api/v1/runs/:id/signals
func (h *CatalogHandler) RunSignals(c *gin.Context) {
	id := c.Param("id")
	signals, err := h.Recorder.RunSignals(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}
	if len(signals) == 0 {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "no signals recorded for this run")
		return
	}
	c.JSON(http.StatusOK, models.SignalsResponse{RunID: id, Signals: signals})
}
