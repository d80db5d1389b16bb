package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/api"
	"github.com/neurobridge/portal-api/internal/config"
	"github.com/neurobridge/portal-api/internal/db"
	"github.com/neurobridge/portal-api/internal/identity"
	"github.com/neurobridge/portal-api/internal/middleware"
	"github.com/neurobridge/portal-api/internal/notify"
	"github.com/neurobridge/portal-api/internal/observ"
	"github.com/neurobridge/portal-api/internal/repository/mongodb"
	"github.com/neurobridge/portal-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup owns the only background context; once serving, every
	// operation runs under its request's context.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.New(startupCtx, cfg.MongoURL, cfg.MongoDB, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close(context.Background())

	if err := database.EnsureIndexes(startupCtx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	notifier, err := notify.NewEmailNotifier(cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	defer notifier.Close()

	// Repositories share the one client; the driver pools connections
	// internally.
	mdb := database.Database()
	accountRepo := mongodb.NewAccountStore(mdb)
	communityRepo := mongodb.NewCommunityStore(mdb)
	communityMsgRepo := mongodb.NewCommunityMessageStore(mdb)
	directMsgRepo := mongodb.NewDirectMessageStore(mdb)

	resolver := identity.NewResolver(accountRepo, cfg.JWTSecret, logger)
	messageSvc := service.NewMessageService(directMsgRepo, resolver, logger)
	communitySvc := service.NewCommunityService(communityRepo, communityMsgRepo, accountRepo, logger)

	authHandler := api.NewAuthHandler(accountRepo, notifier, cfg.JWTSecret, cfg.TokenTTL, logger)
	messageHandler := api.NewMessageHandler(messageSvc, logger)
	communityHandler := api.NewCommunityHandler(communitySvc, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Public: health for load balancers, auth for clients without tokens.
	srv.GET("/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	srv.POST("/api/auth/signup", authHandler.Signup)
	srv.POST("/api/auth/login", authHandler.Login)

	authed := srv.Group("/api")
	authed.Use(middleware.AuthMiddleware(resolver))

	messages := authed.Group("/messages")
	messages.POST("", messageHandler.Send)
	messages.GET("/user/:id", messageHandler.ListForUser)
	messages.GET("/unread/count", messageHandler.UnreadCount)
	messages.PATCH("/:id/read", messageHandler.MarkRead)
	messages.PATCH("/:id/react", messageHandler.React)
	messages.DELETE("/:id", messageHandler.Delete)

	communities := authed.Group("/communities")
	communities.GET("", communityHandler.List)
	communities.GET("/default", communityHandler.GetDefault)
	communities.GET("/:id", communityHandler.Get)
	communities.POST("/:id/join", communityHandler.Join)
	communities.DELETE("/:id/leave", communityHandler.Leave)
	communities.GET("/:id/members", communityHandler.Members)
	communities.GET("/:id/messages", communityHandler.ListMessages)
	communities.POST("/:id/messages", communityHandler.SendMessage)
	communities.PATCH("/:id/messages/:messageId/react", communityHandler.React)
	communities.DELETE("/:id/messages/:messageId", communityHandler.DeleteMessage)

	logger.Info("starting portal API",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
