package router

import (
	"net/http"
	"time"

	"todo-api/backend/internal/handlers"
	"todo-api/backend/internal/logging"
	"todo-api/backend/internal/middleware"
	"todo-api/backend/internal/monitoring"
	"todo-api/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	AuthService    services.AuthService
	TaskService    services.TaskService
	Sessions       middleware.SessionVerifier
	Monitor        *monitoring.Monitor
	Logger         *logrus.Logger
	Cookie         handlers.CookieConfig
	AllowedOrigins []string
}

// New builds the HTTP engine with global middleware and every route.
func New(deps Dependencies) *gin.Engine {
	logger := logging.OrDiscard(deps.Logger)
	if deps.Cookie.Name == "" {
		deps.Cookie.Name = "token"
	}
	monitor := deps.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RecoveryWithLog(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(monitor.Middleware())
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found", "success": false})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed", "success": false})
	})

	r.GET("/health", monitor.HealthHandler())
	r.GET("/health/live", monitor.LivenessHandler())
	r.GET("/health/ready", monitor.ReadinessHandler())
	r.GET("/metrics", monitor.MetricsHandler())

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Cookie)
	auth := r.Group("/auth")
	{
		auth.POST("/signin", authHandler.Register)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	taskHandler := handlers.NewTaskHandler(deps.TaskService)
	tasks := r.Group("/tasks")
	tasks.Use(middleware.Authenticate(deps.Sessions, deps.Cookie.Name, logger))
	{
		tasks.GET("", taskHandler.GetTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	return r
}
