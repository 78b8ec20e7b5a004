package router

import (
	"net/http"
	"os"
	"time"

	"animehome/backend/internal/api"
	"animehome/backend/pkg/config"
	"animehome/backend/pkg/di"
	"animehome/backend/pkg/errors"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestContext())
	engine.Use(middleware.Metrics())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))
	engine.Use(middleware.BodyLimit(cfg.Security.MaxBodySize))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Operational routes stay outside the OpenAPI validation group
	r.Engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to AnimeHome API"})
	})
	r.Engine.GET("/health", r.Container.Health.Handler())
	r.Engine.GET("/api/health", r.Container.Health.Handler())
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.setupStatic()

	routes := r.Engine.Group("/")
	if v := r.openAPIValidator(r.Config.OpenAPI.SchemaPath); v != nil {
		routes.Use(v.Middleware())
	}

	c := r.Container
	api.NewCharacterHandler(c.CharacterService, c.MessageService).RegisterRoutes(routes)
	api.NewMessageHandler(c.MessageService).RegisterRoutes(routes)
	api.NewChatHandler(c.Relay, c.Transcripts).RegisterRoutes(routes)
	api.NewUploadHandler(r.Config.Server.StaticDir, r.Config.Server.BaseURL).RegisterRoutes(routes)
	api.NewImageProxyHandler(r.Config.ImageProxy.Timeout, r.Config.ImageProxy.MaxBytes).RegisterRoutes(routes)
}

// setupStatic serves uploaded avatars and other static assets.
func (r *Router) setupStatic() {
	dir := r.Config.Server.StaticDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.Logger.Warn("static directory unavailable", "dir", dir, "error", err.Error())
		return
	}
	r.Engine.Static("/static", dir)
}

// corsMiddleware allows the configured front-end origins with credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "X-Requested-With", "Cache-Control", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader, api.StreamIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
