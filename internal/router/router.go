package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"thread-service/internal/config"
	"thread-service/internal/handler"
	"thread-service/internal/metrics"
	"thread-service/internal/middleware"
	"thread-service/internal/realtime"
)

// Setup wires middleware and routes onto a gin engine.
func Setup(
	cfg *config.Config,
	commentHandler *handler.CommentHandler,
	healthHandler *handler.HealthHandler,
	wsHandler *realtime.WSHandler,
	validator middleware.TokenValidator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(m.Middleware())

	r.GET("/health", healthHandler.Live)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group(cfg.Server.BasePath)
	{
		api.GET("/ws", wsHandler.Serve)
		api.GET("/items/:contentItemId/comments", commentHandler.GetThread)

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(validator))
		{
			authed.POST("/comments", commentHandler.CreateComment)
			authed.PUT("/comments/:commentId", commentHandler.UpdateComment)
			authed.DELETE("/comments/:commentId", commentHandler.DeleteComment)
			authed.POST("/comments/:commentId/vote", commentHandler.VoteComment)
		}
	}

	return r
}
