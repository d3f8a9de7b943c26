package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskify/backend/internal/config"
	"taskify/backend/internal/handlers"
	"taskify/backend/internal/middleware"
	"taskify/backend/internal/monitoring"
	"taskify/backend/internal/services"
)

// Deps carries everything the router needs. The caller owns the
// lifecycle of each dependency.
type Deps struct {
	DB        *gorm.DB
	Tasks     services.TaskService
	Documents services.DocumentService
	Auth      services.AuthService
	Register  services.RegisterService
	Health    *monitoring.HealthChecker
	RateLimit *middleware.RateLimiter
}

func NewRouter(cfg config.ServerConfig, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.Recovery())
	router.Use(monitoring.MetricsMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if deps.RateLimit != nil {
		router.Use(deps.RateLimit.Middleware())
	}

	if deps.Health != nil {
		router.GET("/health", deps.Health.Handler)
	}
	router.GET("/metrics", monitoring.MetricsHandler)

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Auth, deps.Register)
	taskHandler := handlers.NewTaskHandler(deps.DB, deps.Tasks)
	documentHandler := handlers.NewDocumentHandler(deps.DB, deps.Documents)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		protected := auth.Group("", middleware.Authenticate())
		protected.GET("/me", authHandler.Me)
		protected.PUT("/updatedetails", authHandler.UpdateDetails)
		protected.PUT("/updatepassword", authHandler.UpdatePassword)
	}

	tasks := api.Group("/tasks", middleware.Authenticate())
	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/my-tasks", taskHandler.ListMine)
		tasks.GET("/user/:userId", taskHandler.ListByUser)
		tasks.GET("/radius/:lat/:lng/:distance", taskHandler.ListInRadius)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	documents := api.Group("/documents", middleware.Authenticate())
	{
		documents.GET("", documentHandler.List)
		documents.POST("", documentHandler.Upload)
		documents.GET("/pending", documentHandler.ListPending)
		documents.GET("/task/:taskId", documentHandler.ListByTask)
		documents.GET("/:id", documentHandler.Get)
		documents.PUT("/:id/status", documentHandler.Decide)
		documents.DELETE("/:id", documentHandler.Delete)
	}

	return router
}

type Server struct {
	http *http.Server
}

func New(cfg config.ServerConfig, router *gin.Engine) *Server {
	return &Server{
		http: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
