package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"GemSentinel/internal/api/models"
	"GemSentinel/internal/watchlist"
)

// WatchlistHandler handles the selected-instrument list
type WatchlistHandler struct {
	Watchlist *watchlist.Manager
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(wl *watchlist.Manager) *WatchlistHandler {
	return &WatchlistHandler{Watchlist: wl}
}

// List handles GET /api/v1/watchlist
func (h *WatchlistHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.response(false))
}

// Add handles POST /api/v1/watchlist
func (h *WatchlistHandler) Add(c *gin.Context) {
	var req models.WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	added, err := h.Watchlist.Add(req.Symbol)
	if err != nil {
		if errors.Is(err, watchlist.ErrEmptySymbol) {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "WATCHLIST_ERROR", err.Error())
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, h.response(added))
}

// Remove handles DELETE /api/v1/watchlist/:symbol
func (h *WatchlistHandler) Remove(c *gin.Context) {
	removed, err := h.Watchlist.Remove(c.Param("symbol"))
	if err != nil {
		if errors.Is(err, watchlist.ErrEmptySymbol) {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "WATCHLIST_ERROR", err.Error())
		return
	}
	if !removed {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "symbol is not on the watchlist")
		return
	}
	c.JSON(http.StatusOK, h.response(true))
}

func (h *WatchlistHandler) response(changed bool) models.WatchlistResponse {
	symbols := h.Watchlist.List()
	if symbols == nil {
		symbols = []string{}
	}
	return models.WatchlistResponse{Symbols: symbols, Ready: h.Watchlist.Ready(), Changed: changed}
}
