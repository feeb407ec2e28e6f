package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-api/backend/internal/cache"
	"todo-api/backend/internal/config"
	"todo-api/backend/internal/database"
	"todo-api/backend/internal/handlers"
	"todo-api/backend/internal/logging"
	"todo-api/backend/internal/monitoring"
	"todo-api/backend/internal/repositories"
	"todo-api/backend/internal/router"
	"todo-api/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

type application struct {
	handler http.Handler
	pool    *database.DatabasePool
	redis   *cache.RedisCache
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.NewLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApplication(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      app.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited properly")
	return nil
}

// newApplication opens the database and, when enabled, redis, and wires the
// services into the router.
func newApplication(cfg *config.Config, log *logrus.Logger) (*application, error) {
	gormLevel := logger.Warn
	if !cfg.IsProduction() && log.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = logger.Info
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        gormLevel,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Migrate(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	app := &application{pool: pool}
	monitor := monitoring.NewMonitor()
	monitor.RegisterCheck("database", pool.HealthContext)
	monitor.RegisterStats("database", pool.Stats)

	var revocations services.RevocationStore
	if cfg.Redis.Enabled {
		app.redis = cache.NewRedisCache(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := app.redis.Health(context.Background()); err != nil {
			app.Close(log)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		revocations = cache.NewSessionDenylist(app.redis)
		monitor.RegisterCheck("redis", app.redis.Health)
	} else {
		log.Warn("redis disabled: logout cannot revoke sessions and task lists are not cached")
	}

	sessions := services.NewSessionManager(services.SessionConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.JWTIssuer,
		TTL:    cfg.Auth.SessionTTL,
	}, revocations)

	authService := services.NewAuthService(
		repositories.NewUserRepository(pool.DB),
		services.NewBcryptHasher(cfg.Auth.BCryptCost),
		sessions,
		log,
	)

	var taskService services.TaskService = services.NewTaskService(repositories.NewTaskRepository(pool.DB), log)
	if app.redis != nil {
		cached := services.NewCachedTaskService(taskService, app.redis, cache.NewCircuitBreaker(nil), cfg.Cache.TaskListTTL, log)
		monitor.RegisterStats("cache", cached.GetCacheStats)
		taskService = cached
	}

	app.handler = router.New(router.Dependencies{
		AuthService: authService,
		TaskService: taskService,
		Sessions:    sessions,
		Monitor:     monitor,
		Logger:      log,
		Cookie: handlers.CookieConfig{
			Name:     cfg.Auth.CookieName,
			Domain:   cfg.Auth.CookieDomain,
			Secure:   cfg.IsProduction(),
			SameSite: cfg.SameSite(),
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return app, nil
}

func (a *application) Close(log *logrus.Logger) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis")
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}
}
