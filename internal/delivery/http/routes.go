package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpcalc/backend/config"
	"github.com/kpcalc/backend/internal/infrastructure/metrics"
)

// SetupRouter creates and configures the Gin router. recorder may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, recorder *metrics.Recorder, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	if recorder != nil {
		router.Use(MetricsMiddleware(recorder))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if recorder != nil {
		router.GET("/metrics", gin.WrapH(recorder.Handler()))
	}

	var rejections RequestRecorder
	if recorder != nil {
		rejections = recorder
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, rejections))
	v1.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))
	{
		quotes := v1.Group("/quotes")
		{
			quotes.POST("/match", handler.Match)
			quotes.POST("/price", handler.Price)
			quotes.POST("/summary", handler.Summary)
			quotes.POST("/calculate", handler.Calculate)
			quotes.POST("/edits", handler.ApplyEdits)
		}

		workspaces := v1.Group("/workspaces")
		{
			workspaces.POST("", handler.SaveWorkspace)
			workspaces.PUT("/:id", handler.SaveWorkspace)
			workspaces.GET("/:id", handler.GetWorkspace)
			workspaces.DELETE("/:id", handler.DeleteWorkspace)
		}
	}

	return router
}
