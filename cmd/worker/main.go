// Package main runs the background worker: moderation scans and
// notification fanout pulled off the Redis job queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nmtun/seeboi-backend/config"
	"github.com/nmtun/seeboi-backend/internal/ai"
	"github.com/nmtun/seeboi-backend/internal/moderation"
	"github.com/nmtun/seeboi-backend/internal/notifications"
	"github.com/nmtun/seeboi-backend/internal/polls"
	"github.com/nmtun/seeboi-backend/internal/posts"
	"github.com/nmtun/seeboi-backend/internal/realtime"
	"github.com/nmtun/seeboi-backend/internal/reports"
	"github.com/nmtun/seeboi-backend/internal/users"
	"github.com/nmtun/seeboi-backend/internal/worker"
	"github.com/nmtun/seeboi-backend/pkg/database"
	"github.com/nmtun/seeboi-backend/pkg/queue"
	"github.com/nmtun/seeboi-backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Notifications created here are pushed through Redis; server instances
	// holding the user's socket forward them.
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	notifService := notifications.NewService(
		notifications.NewRepository(pool),
		realtime.NewRemotePusher(redisPubSub),
		logger,
	)

	gemini := ai.NewGeminiClient(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	moderationService := moderation.NewService(gemini, logger)

	pollRepo := polls.NewRepository(pool)
	processor := worker.NewProcessor(
		moderationService,
		posts.NewRepository(pool, pollRepo),
		reports.NewRepository(pool),
		users.NewRepository(pool),
		notifService,
		logger,
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("worker started",
		zap.String("queues", queue.QueueModeration+","+queue.QueueNotifications))

	for {
		job, queueName, err := jobQueue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}

		logger.Info("job received",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.String("queue", queueName),
			zap.Int("attempt", job.Attempt))

		if err := processor.Process(ctx, job); err != nil {
			logger.Error("job failed",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Error(err))
			if err := jobQueue.Retry(ctx, job); err != nil {
				logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}

	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
