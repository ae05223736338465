package handler

import (
	"net/http"

	"github.com/yourorg/crypto-dashboard/internal/registry"
	"github.com/yourorg/crypto-dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageHandler exposes the durable image-URL registry to rendering
// collaborators so coin icons are fetched once and reused.
type ImageHandler struct {
	images *registry.ImageRegistry
	logger *zap.Logger
}

// NewImageHandler creates a new image registry handler
func NewImageHandler(images *registry.ImageRegistry, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		images: images,
		logger: logger,
	}
}

// GetImage returns the cached icon URL for a coin
// GET /api/v1/images/:id
func (h *ImageHandler) GetImage(c *gin.Context) {
	coinID := c.Param("id")

	url, ok := h.images.GetImage(coinID)
	if !ok {
		utils.SendErrorResponse(c, http.StatusNotFound, "No image cached for coin")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coin_id": coinID,
		"url":     url,
	})
}

type setImageRequest struct {
	URL string `json:"url" binding:"required"`
}

// SetImage records a confirmed icon URL observed by a collaborator
// PUT /api/v1/images/:id
func (h *ImageHandler) SetImage(c *gin.Context) {
	coinID := c.Param("id")

	var req setImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "url is required")
		return
	}

	h.images.SetImage(coinID, req.URL)

	// Placeholder and empty URLs are silently rejected by the registry;
	// report whether the write actually took.
	url, stored := h.images.GetImage(coinID)
	c.JSON(http.StatusOK, gin.H{
		"coin_id": coinID,
		"stored":  stored && url == req.URL,
	})
}

// ClearImages empties the registry
// DELETE /api/v1/images
func (h *ImageHandler) ClearImages(c *gin.Context) {
	h.images.ClearCache()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
