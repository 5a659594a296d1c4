package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lingodrip/internal/service"
)

type TipHandler struct {
	feedService *service.FeedService
}

func NewTipHandler(feedService *service.FeedService) *TipHandler {
	return &TipHandler{feedService: feedService}
}

// Get handles GET /tips/:id
func (h *TipHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	tipID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tip id"})
		return
	}

	detail, err := h.feedService.GetTip(c.Request.Context(), userID, tipID)
	if err != nil {
		if errors.Is(err, service.ErrTipLocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": "tip not unlocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tip"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          detail.Tip.ID,
		"title":       detail.Tip.Title,
		"body":        detail.Tip.Body,
		"category":    detail.Tip.Category,
		"is_read":     detail.IsRead,
		"is_favorite": detail.IsFavorite,
		"unlocked_at": detail.UnlockedAt,
	})
}

// MarkRead handles POST /tips/:id/read
func (h *TipHandler) MarkRead(c *gin.Context) {
	h.update(c, func(userID, tipID int) error {
		return h.feedService.MarkRead(c.Request.Context(), userID, tipID)
	})
}

// Favorite handles POST /tips/:id/favorite
func (h *TipHandler) Favorite(c *gin.Context) {
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	h.update(c, func(userID, tipID int) error {
		return h.feedService.SetFavorite(c.Request.Context(), userID, tipID, req.Favorite)
	})
}

func (h *TipHandler) update(c *gin.Context, fn func(userID, tipID int) error) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	tipID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tip id"})
		return
	}

	if err := fn(userID, tipID); err != nil {
		if errors.Is(err, service.ErrTipLocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": "tip not unlocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update tip"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
