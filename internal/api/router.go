// Package api exposes the analysis over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"GemSentinel/internal/api/handlers"
	"GemSentinel/internal/api/middleware"
	"GemSentinel/internal/metrics"
)

// Deps are the handlers and settings the router is built from.
type Deps struct {
	Analysis       *handlers.AnalysisHandler
	Watchlist      *handlers.WatchlistHandler
	Catalog        *handlers.CatalogHandler
	Metrics        *metrics.Registry
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(d.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/analysis", d.Analysis.RunAnalysis)

		api.GET("/watchlist", d.Watchlist.List)
		api.POST("/watchlist", d.Watchlist.Add)
		api.DELETE("/watchlist/:symbol", d.Watchlist.Remove)

		api.GET("/search", d.Catalog.Search)
		api.GET("/instruments", d.Catalog.ListInstruments)
		api.GET("/runs", d.Catalog.ListRuns)
		api.GET("/runs/:id/signals", d.Catalog.RunSignals)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
