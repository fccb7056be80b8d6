package app

import (
	"pmp_prep_backend/docs"
	"pmp_prep_backend/internal/config"
	"pmp_prep_backend/internal/middleware"
	"pmp_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/exam/plan", c.exam.GetPlan)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		sessions := authGroup.Group("/exam/sessions")
		{
			sessions.POST("", c.exam.CreateSession)
			sessions.GET("", c.exam.ListSessions)
			sessions.GET("/:id", c.exam.GetSession)
			sessions.GET("/:id/questions", c.exam.GetSessionQuestions)
			sessions.GET("/:id/resume", c.exam.ResumeSession)
			sessions.POST("/:id/answers", c.exam.SubmitAnswer)
			sessions.POST("/:id/complete", c.exam.CompleteSession)
			sessions.POST("/:id/abandon", c.exam.AbandonSession)
			sessions.GET("/:id/report", c.exam.GetReport)

			sessions.GET("/:id/coach/metrics", c.coach.GetMetrics)
			sessions.GET("/:id/coach/summary", c.coach.GetSummary)
			sessions.GET("/:id/coach/game-tape", c.coach.GetGameTape)
		}

		practice := authGroup.Group("/practice")
		{
			practice.POST("/questions/:id/answer", c.practice.SubmitAttempt)
			practice.GET("/attempts", c.practice.ListAttempts)
		}

		authGroup.GET("/performance", c.practice.GetPerformance)
	}
}
