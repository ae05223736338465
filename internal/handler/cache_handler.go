package handler

import (
	"net/http"

	"github.com/yourorg/crypto-dashboard/internal/service"
	"github.com/yourorg/crypto-dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheHandler exposes cache administration for the manual refresh action.
type CacheHandler struct {
	marketService *service.MarketService
	logger        *zap.Logger
}

// NewCacheHandler creates a new cache administration handler
func NewCacheHandler(marketService *service.MarketService, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		marketService: marketService,
		logger:        logger,
	}
}

type invalidateRequest struct {
	Pattern string `json:"pattern"`
}

// Invalidate drops cached queries. With a pattern only matching keys are
// removed; without one the whole cache is cleared.
// POST /api/v1/cache/invalidate
func (h *CacheHandler) Invalidate(c *gin.Context) {
	var req invalidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	removed, err := h.marketService.InvalidateCache(req.Pattern)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid pattern")
		return
	}

	h.logger.Info("Cache invalidated",
		zap.String("pattern", req.Pattern),
		zap.Int("removed", removed))

	resp := gin.H{"invalidated": true}
	if req.Pattern != "" {
		resp["removed"] = removed
	}
	c.JSON(http.StatusOK, resp)
}
