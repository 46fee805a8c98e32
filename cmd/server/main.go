// Package main runs the CEE Connect HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cee-connect/backend/config"
	"github.com/cee-connect/backend/internal/announcements"
	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/internal/middleware"
	"github.com/cee-connect/backend/internal/moderation"
	"github.com/cee-connect/backend/internal/polls"
	"github.com/cee-connect/backend/internal/suggestions"
	"github.com/cee-connect/backend/internal/users"
	"github.com/cee-connect/backend/pkg/database"
	"github.com/cee-connect/backend/pkg/redis"
	"github.com/cee-connect/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis backs the single-use voting tokens; the server still runs
	// without it, minus the token endpoints.
	var tokenStore *polls.TokenStore
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		tokenStore = polls.NewTokenStore(rdb.Client, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	cookieMaxAge := cfg.JWT.ExpireHours * 3600

	// Auth and users
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, cookieMaxAge, logger)
	userHandler := users.NewHandler(authRepo, logger)

	// Poll engine
	pollRepo := polls.NewRepository(pool)
	var invalidator polls.TokenInvalidator
	if tokenStore != nil {
		invalidator = tokenStore
	}
	pollService := polls.NewService(pollRepo, authRepo, invalidator, logger)
	pollHandler := polls.NewHandler(pollService, tokenStore, logger)

	// Moderation engine
	moderationRepo := moderation.NewRepository(pool)
	moderationService := moderation.NewService(moderationRepo, authRepo, logger)
	moderationHandler := moderation.NewHandler(moderationService, logger)

	// Content
	announcementRepo := announcements.NewRepository(pool)
	announcementHandler := announcements.NewHandler(announcementRepo, logger)
	suggestionRepo := suggestions.NewRepository(pool)
	suggestionHandler := suggestions.NewHandler(suggestionRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public: redeem a single-use voting token
	router.GET("/tokens/votacion/:token", pollHandler.RedeemToken)

	// Protected API: token check, then live user/role reload
	api := router.Group("")
	api.Use(middleware.Authenticate(jwtService, authRepo))
	{
		// Polls
		api.GET("/votacion", pollHandler.List)
		api.POST("/votacion", middleware.RequireAdmin(), pollHandler.Create)
		api.POST("/votacion/:id/votar", middleware.CheckMute(moderationService), pollHandler.Vote)
		api.GET("/votacion/:id/mi-voto/:usuarioId", pollHandler.MyVote)
		api.PATCH("/votacion/:id/cerrar", middleware.RequireAdmin(), pollHandler.Close)
		api.GET("/votacion/:id/resultados", pollHandler.Results)
		api.GET("/votacion/:id/participantes", middleware.RequireAdmin(), pollHandler.Participants)
		api.PATCH("/votacion/:id/publicar", middleware.RequireAdmin(), pollHandler.Publish)
		api.POST("/votacion/:id/token", middleware.RequireAdmin(), pollHandler.IssueToken)

		// Announcements
		api.GET("/anuncios", announcementHandler.List)
		api.POST("/anuncios", middleware.RequireAdmin(), announcementHandler.Create)
		api.DELETE("/anuncios/:id", middleware.RequireAdmin(), announcementHandler.Delete)

		// Suggestions (creation is a participation write: mute-gated)
		api.POST("/sugerencias", middleware.CheckMute(moderationService), suggestionHandler.Create)
		api.GET("/sugerencias", middleware.RequireAdmin(), suggestionHandler.List)
		api.DELETE("/sugerencias/:id", middleware.RequireAdmin(), suggestionHandler.Delete)

		// Moderation (admin)
		admin := api.Group("/admin", middleware.RequireAdmin())
		{
			admin.POST("/usuarios/:usuarioid/silenciar", moderationHandler.Mute)
			admin.DELETE("/usuarios/:usuarioid/silenciar", moderationHandler.Unmute)
			admin.GET("/usuarios/:usuarioid/silencio", moderationHandler.GetStatus)
		}

		// Super-admin (role flag read from token claims)
		superadmin := api.Group("/superadmin", middleware.RequireSuperAdmin())
		{
			superadmin.PATCH("/usuarios/:usuarioid/cambiar", userHandler.ToggleRole)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
