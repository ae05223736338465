package handler

import (
	"net/http"

	"github.com/yourorg/crypto-dashboard/internal/service"
	"github.com/yourorg/crypto-dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WatchlistHandler handles watchlist HTTP requests
type WatchlistHandler struct {
	watchlistService *service.WatchlistService
	marketService    *service.MarketService
	logger           *zap.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlistService *service.WatchlistService, marketService *service.MarketService, logger *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlistService: watchlistService,
		marketService:    marketService,
		logger:           logger,
	}
}

// GetWatchlist returns the watched ids with their current listings
// GET /api/v1/watchlist
func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	ids := h.watchlistService.List()
	if len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"ids":       []string{},
			"coins":     []struct{}{},
			"source":    "live",
			"simulated": false,
		})
		return
	}

	coins, meta := h.marketService.ListCoinsByIDs(c.Request.Context(), ids, c.Query("currency"))

	c.JSON(http.StatusOK, envelope(meta, gin.H{
		"ids":   ids,
		"coins": coins,
	}))
}

// AddToWatchlist puts a coin on the watchlist
// POST /api/v1/watchlist/:id
func (h *WatchlistHandler) AddToWatchlist(c *gin.Context) {
	coinID := c.Param("id")

	added := h.watchlistService.Add(coinID)
	if !added && !h.watchlistService.Contains(coinID) {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid coin id")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"added": added,
		"ids":   h.watchlistService.List(),
	})
}

// RemoveFromWatchlist drops a coin from the watchlist
// DELETE /api/v1/watchlist/:id
func (h *WatchlistHandler) RemoveFromWatchlist(c *gin.Context) {
	coinID := c.Param("id")

	removed := h.watchlistService.Remove(coinID)

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"ids":     h.watchlistService.List(),
	})
}
