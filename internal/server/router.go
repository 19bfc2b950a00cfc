package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyloom-backend/internal/handlers"
	"github.com/yungbote/storyloom-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	StoryHandler   *handlers.StoryHandler
	SceneHandler   *handlers.SceneHandler
	SSEHandler     *handlers.SSEHandler
	StaticDir      string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Refresh-Token"},
		AllowCredentials: true,
	}))

// ===============
// || Public    ||
// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
	}
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

// ===============
// || Protected ||
// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/api/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/api/logout", cfg.AuthHandler.Logout)
	// Stories
	protected.POST("/api/stories", cfg.StoryHandler.Create)
	protected.GET("/api/stories", cfg.StoryHandler.List)
	protected.GET("/api/stories/:id", cfg.StoryHandler.Get)
	protected.DELETE("/api/stories/:id", cfg.StoryHandler.Delete)
	protected.GET("/api/stories/:id/next-scene", cfg.StoryHandler.NextScene)
	protected.POST("/api/stories/:id/scenes/preview", cfg.StoryHandler.PreviewChapterScenes)
	// Scenes
	protected.POST("/api/stories/:id/scenes/generate", cfg.SceneHandler.GenerateScene)
	protected.POST("/api/scenes/:id/paragraphs/:index", cfg.SceneHandler.EditParagraph)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.SSEStream)

	return router
}
