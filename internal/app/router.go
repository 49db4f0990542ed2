package app

import (
	"lingo_edu_backend/docs"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/middleware"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"lingo_edu_backend/pkg/monitoring"
	"lingo_edu_backend/pkg/security"
	"lingo_edu_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	router.GET("/metrics", monitoring.PrometheusHandler())

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	student := router.Group("/api")
	student.Use(
		middleware.AuthMiddleware(cfg),
		middleware.RoleMiddleware(model.Student),
		security.RateLimiter(cfg.RateLimit.MaxRequests, window, security.UserOrIPKey),
	)
	{
		student.POST("/assessments/:id/attempts", c.attempt.OpenAttempt)
		student.GET("/assessments/:id/attempts", c.attempt.ListAttempts)

		attempts := student.Group("/attempts/:id")
		attempts.GET("", c.attempt.GetAttempt)
		attempts.PUT("/answers/:questionId", c.attempt.SaveAnswer)
		attempts.POST("/answers/:questionId/upload", c.attempt.UploadAnswer)
		attempts.POST("/submit", c.attempt.SubmitAttempt)
		attempts.GET("/events", c.attempt.Events)
	}
}
