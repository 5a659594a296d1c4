package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	quizHandler *QuizHandler,
	feedHandler *FeedHandler,
	tipHandler *TipHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/quiz/submit", quizHandler.Submit)
		auth.GET("/feed/today", feedHandler.Today)
		auth.GET("/tips/:id", tipHandler.Get)
		auth.POST("/tips/:id/read", tipHandler.MarkRead)
		auth.POST("/tips/:id/favorite", tipHandler.Favorite)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
