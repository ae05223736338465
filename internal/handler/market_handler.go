package handler

import (
	"net/http"
	"strconv"

	"github.com/yourorg/crypto-dashboard/internal/model"
	"github.com/yourorg/crypto-dashboard/internal/service"
	"github.com/yourorg/crypto-dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketHandler handles market data HTTP requests
type MarketHandler struct {
	marketService *service.MarketService
	logger        *zap.Logger
}

// NewMarketHandler creates a new market data handler
func NewMarketHandler(marketService *service.MarketService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		logger:        logger,
	}
}

// envelope wraps a payload with its provenance so the UI can render a
// "using simulated data" banner when appropriate.
func envelope(meta service.Meta, fields gin.H) gin.H {
	out := gin.H{
		"source":    meta.Source,
		"simulated": meta.Simulated,
	}
	if meta.Notice != "" {
		out["notice"] = meta.Notice
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// GetCoins handles paginated market listings
// GET /api/v1/coins
func (h *MarketHandler) GetCoins(c *gin.Context) {
	params := utils.ParsePaginationParams(c, 10, 250) // default: 10, max: 250
	currency := c.Query("currency")

	page, meta := h.marketService.ListCoins(c.Request.Context(), params.Page, params.PerPage, currency)

	c.JSON(http.StatusOK, envelope(meta, gin.H{
		"coins":    page.Coins,
		"has_more": page.HasMore,
	}))
}

// GetCoin handles a single coin's detail
// GET /api/v1/coins/:id
func (h *MarketHandler) GetCoin(c *gin.Context) {
	coinID := c.Param("id")

	detail, meta := h.marketService.GetCoinDetail(c.Request.Context(), coinID)
	if detail == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Coin not found")
		return
	}

	c.JSON(http.StatusOK, envelope(meta, gin.H{"coin": detail}))
}

// GetChart handles one historical series for a coin
// GET /api/v1/coins/:id/chart
func (h *MarketHandler) GetChart(c *gin.Context) {
	coinID := c.Param("id")

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	kind := c.DefaultQuery("kind", string(model.ChartPrices))
	if !model.ValidChartKind(kind) {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid kind. Use prices, market_caps or total_volumes")
		return
	}
	currency := c.Query("currency")

	series, meta := h.marketService.GetChartSeries(c.Request.Context(), coinID, days, model.ChartKind(kind), currency)

	c.JSON(http.StatusOK, envelope(meta, gin.H{"series": series}))
}

// GetComparison handles a two-coin price comparison
// GET /api/v1/compare/chart
func (h *MarketHandler) GetComparison(c *gin.Context) {
	baseID := c.Query("base")
	counterID := c.Query("counter")
	if baseID == "" || counterID == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Both base and counter coin ids are required")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	currency := c.Query("currency")

	base, counter, meta := h.marketService.GetComparisonSeries(c.Request.Context(), baseID, counterID, days, currency)

	c.JSON(http.StatusOK, envelope(meta, gin.H{
		"base":    base,
		"counter": counter,
	}))
}

// Search handles coin search
// GET /api/v1/search
func (h *MarketHandler) Search(c *gin.Context) {
	query := c.Query("query")

	results, meta := h.marketService.Search(c.Request.Context(), query)

	c.JSON(http.StatusOK, envelope(meta, gin.H{"results": results}))
}
