// Package main runs the social platform HTTP server with WebSocket and graceful shutdown.
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

	"github.com/nmtun/seeboi-backend/config"
	"github.com/nmtun/seeboi-backend/internal/ai"
	"github.com/nmtun/seeboi-backend/internal/auth"
	"github.com/nmtun/seeboi-backend/internal/collections"
	"github.com/nmtun/seeboi-backend/internal/comments"
	"github.com/nmtun/seeboi-backend/internal/face"
	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/internal/moderation"
	"github.com/nmtun/seeboi-backend/internal/notifications"
	"github.com/nmtun/seeboi-backend/internal/polls"
	"github.com/nmtun/seeboi-backend/internal/posts"
	"github.com/nmtun/seeboi-backend/internal/realtime"
	"github.com/nmtun/seeboi-backend/internal/reports"
	"github.com/nmtun/seeboi-backend/internal/search"
	"github.com/nmtun/seeboi-backend/internal/tags"
	"github.com/nmtun/seeboi-backend/internal/tarot"
	"github.com/nmtun/seeboi-backend/internal/trending"
	"github.com/nmtun/seeboi-backend/internal/tuvi"
	"github.com/nmtun/seeboi-backend/internal/uploads"
	"github.com/nmtun/seeboi-backend/internal/users"
	"github.com/nmtun/seeboi-backend/pkg/database"
	"github.com/nmtun/seeboi-backend/pkg/queue"
	"github.com/nmtun/seeboi-backend/pkg/redis"
	"github.com/nmtun/seeboi-backend/pkg/response"
	"github.com/nmtun/seeboi-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	gemini := ai.NewGeminiClient(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	openAI := ai.NewOpenAIClient(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications (persist + realtime push)
	notifRepo := notifications.NewRepository(pool)
	notifService := notifications.NewService(notifRepo, hub, logger)
	notifHandler := notifications.NewHandler(notifRepo, logger)

	// XP and badges
	xpService := users.NewXPService(pool, logger)

	// Users
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, notifService, logger)

	// Polls
	pollRepo := polls.NewRepository(pool)
	pollHandler := polls.NewHandler(pollRepo, hub, logger)

	// Posts
	postRepo := posts.NewRepository(pool, pollRepo)
	postHandler := posts.NewHandler(postRepo, pollRepo, jobQueue, notifService, xpService, logger)

	// Comments
	commentRepo := comments.NewRepository(pool)
	commentHandler := comments.NewHandler(commentRepo, postRepo, notifService, xpService, jobQueue, hub, logger)

	// Tags
	tagRepo := tags.NewRepository(pool)
	tagHandler := tags.NewHandler(tagRepo, logger)

	// Search
	searchRepo := search.NewRepository(pool)
	searchHandler := search.NewHandler(searchRepo, logger)

	// Trending
	trendingRepo := trending.NewRepository(pool)
	trendingHandler := trending.NewHandler(trendingRepo, logger)

	// Reports and moderation
	reportRepo := reports.NewRepository(pool)
	reportHandler := reports.NewHandler(reportRepo, notifService, logger)
	moderationService := moderation.NewService(gemini, logger)
	moderationHandler := moderation.NewHandler(moderationService, logger)

	// Collections
	collectionRepo := collections.NewRepository(pool)
	collectionHandler := collections.NewHandler(collectionRepo, logger)

	// Uploads
	uploadRepo := uploads.NewRepository(pool)
	uploadHandler := uploads.NewHandler(uploadRepo, s3Client, logger)

	// AI readings
	tarotHandler := tarot.NewHandler(tarot.NewService(openAI, logger))
	tuviRepo := tuvi.NewRepository(pool)
	tuviHandler := tuvi.NewHandler(tuviRepo, gemini, logger)
	faceClient := face.NewClient(cfg.Face.ServiceURL, time.Duration(cfg.Face.TimeoutSec)*time.Second, logger)
	faceRepo := face.NewRepository(pool)
	faceHandler := face.NewHandler(faceClient, face.NewService(gemini, logger), faceRepo, logger)

	jwtValidate := func(token string) (int64, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public reads (viewer resolved when a token is present)
	public := router.Group("")
	public.Use(middleware.OptionalJWT(jwtService))
	{
		public.GET("/posts", postHandler.List)
		public.GET("/posts/:id", postHandler.Get)
		public.GET("/posts/:id/comments", commentHandler.List)
		public.GET("/posts/:id/comments/count", commentHandler.Count)
		public.GET("/polls/:id/result", pollHandler.GetResult)
		public.GET("/polls/:id/my-vote", pollHandler.GetUserVote)
		public.GET("/trending", trendingHandler.List)
		public.GET("/trending/stats", trendingHandler.GetStats)
		public.GET("/tags", tagHandler.List)
		public.GET("/search", searchHandler.Search)
		public.GET("/users/:id", userHandler.GetProfile)
		public.GET("/users/:id/followers", userHandler.Followers)
		public.GET("/users/:id/following", userHandler.Following)
		public.GET("/users/:id/badges", userHandler.Badges)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)
		api.PATCH("/me", userHandler.UpdateMe)
		api.GET("/me/xp", userHandler.XPHistory)
		api.POST("/users/:id/follow", userHandler.Follow)
		api.DELETE("/users/:id/follow", userHandler.Unfollow)
		api.DELETE("/me/followers/:id", userHandler.RemoveFollower)

		// Posts
		api.POST("/posts", postHandler.Create)
		api.GET("/drafts", postHandler.ListDrafts)
		api.PATCH("/posts/:id", postHandler.Update)
		api.POST("/posts/:id/publish", postHandler.Publish)
		api.DELETE("/posts/:id", postHandler.Delete)
		api.POST("/posts/:id/restore", postHandler.Restore)
		api.POST("/posts/:id/like", postHandler.Like)
		api.DELETE("/posts/:id/like", postHandler.Unlike)
		api.GET("/posts/:id/views", postHandler.ViewDetails)
		api.POST("/posts/:id/bookmark", postHandler.Bookmark)
		api.DELETE("/posts/:id/bookmark", postHandler.Unbookmark)
		api.GET("/bookmarks", postHandler.ListBookmarks)

		// Comments
		api.POST("/posts/:id/comments", commentHandler.Create)
		api.PATCH("/comments/:id", commentHandler.Update)
		api.DELETE("/comments/:id", commentHandler.Delete)
		api.POST("/comments/:id/vote", commentHandler.Vote)
		api.DELETE("/comments/:id/vote", commentHandler.RemoveVote)

		// Polls
		api.POST("/polls/:id/vote", pollHandler.Vote)
		api.DELETE("/polls/:id/vote", pollHandler.Unvote)

		// Tags
		api.POST("/tags/:id/follow", tagHandler.Follow)
		api.DELETE("/tags/:id/follow", tagHandler.Unfollow)
		api.GET("/tags/followed", tagHandler.Followed)

		// Notifications
		api.GET("/notifications", notifHandler.List)
		api.PATCH("/notifications/:id/read", notifHandler.MarkRead)
		api.POST("/notifications/read-all", notifHandler.MarkAllRead)

		// Collections
		api.GET("/collections", collectionHandler.List)
		api.POST("/collections", collectionHandler.Create)
		api.PATCH("/collections/:id", collectionHandler.Update)
		api.DELETE("/collections/:id", collectionHandler.Delete)

		// Reports
		api.POST("/reports", reportHandler.Create)

		// Uploads
		api.POST("/uploads", uploadHandler.Upload)
		api.POST("/uploads/presign", uploadHandler.Presign)
		api.DELETE("/uploads/:id", uploadHandler.Delete)

		// Tarot
		api.POST("/tarot/daily", tarotHandler.Daily)
		api.POST("/tarot/yes-no", tarotHandler.YesNo)
		api.POST("/tarot/one-card", tarotHandler.OneCard)
		api.POST("/tarot/love-simple", tarotHandler.LoveSimple)
		api.POST("/tarot/love-deep", tarotHandler.LoveDeep)

		// Tu Vi
		api.POST("/tuvi/charts", tuviHandler.Generate)
		api.GET("/tuvi/charts", tuviHandler.List)
		api.GET("/tuvi/charts/:id", tuviHandler.Get)
		api.POST("/tuvi/charts/:id/interpret", tuviHandler.Interpret)

		// Face readings
		api.POST("/face/analyze", faceHandler.Analyze)
		api.POST("/face/interpret", faceHandler.Interpret)
		api.POST("/face/readings", faceHandler.Save)
		api.GET("/face/readings", faceHandler.History)
		api.GET("/face/readings/:id", faceHandler.Detail)

		// Admin
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/reports", reportHandler.List)
			admin.PATCH("/reports/:id", reportHandler.UpdateStatus)
			admin.DELETE("/posts/:id/hard", postHandler.HardDelete)
			admin.POST("/tags", tagHandler.Create)
			admin.PATCH("/tags/:id", tagHandler.Update)
			admin.DELETE("/tags/:id", tagHandler.Delete)
			admin.POST("/moderation/test", moderationHandler.Test)
			admin.POST("/moderation/batch", moderationHandler.Batch)
			admin.GET("/moderation/cache", moderationHandler.CacheStats)
			admin.DELETE("/moderation/cache", moderationHandler.CacheClear)
		}
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

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
