package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lingodrip/internal/drip"
	"lingodrip/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// Today handles GET /feed/today
func (h *FeedHandler) Today(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	view, err := h.feedService.Today(c.Request.Context(), userID, time.Now())
	if err != nil {
		if errors.Is(err, drip.ErrNotEligible) {
			c.JSON(http.StatusForbidden, gin.H{"error": "complete the placement quiz first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feed"})
		return
	}

	slots := make([]gin.H, 0, len(view.Slots))
	for _, sl := range view.Slots {
		entry := gin.H{
			"position":   sl.Position,
			"unlocks_at": sl.UnlocksAt,
			"unlocked":   sl.Unlocked,
		}
		if sl.Unlocked {
			entry["unlocked_at"] = sl.UnlockedAt
			entry["tip"] = gin.H{
				"id":       sl.Tip.ID,
				"title":    sl.Tip.Title,
				"body":     sl.Tip.Body,
				"category": sl.Tip.Category,
			}
		}
		slots = append(slots, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"day_start":      view.DayStart,
		"slots":          slots,
		"unlocked_count": view.UnlockedCount,
		"next_unlock_at": view.NextUnlockAt,
	})
}
