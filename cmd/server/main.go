package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/logger"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/validation"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.Get()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.Init(cfg.IsProduction())
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := database.MigrateDatabase(db, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := validation.Register(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register validators")
	}

	r, err := newRouter(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shut down")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("Server stopped")
}

func newRouter(cfg *config.Config, db *gorm.DB, log zerolog.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Prometheus())
	r.Use(newCORS(cfg))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	limit, err := middleware.RateLimit(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	r.Use(limit)

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	// A nil interface keeps task generation reporting 503.
	var generator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, task generation disabled")
	}

	authService := services.NewAuthService(userRepo, services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, generator)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo)

	err = handlers.RegisterRoutes(r, &handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Users:    handlers.NewUserHandler(services.NewUserService(userRepo)),
		Tasks:    handlers.NewTaskHandler(taskService),
		Projects: handlers.NewProjectHandler(projectService),
		System:   handlers.NewSystemHandler(db),
	}, handlers.Guards{
		Auth:          middleware.RequireAuth(authService),
		TaskAccess:    middleware.RequireTaskAccess(taskService),
		ProjectAccess: middleware.RequireProjectAccess(projectService),
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func newCORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", constants.HeaderRequestID)
	corsConfig.ExposeHeaders = []string{constants.HeaderRequestID}

	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}
