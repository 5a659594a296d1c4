package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lingodrip/internal/service"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// Submit handles POST /quiz/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req struct {
		Answers []int `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.quizService.Submit(c.Request.Context(), userID, req.Answers)
	if err != nil {
		if errors.Is(err, service.ErrAnswerCountMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "answer count does not match question count"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grade quiz"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"score": res.Score,
		"total": res.Total,
		"level": res.Level,
	})
}
