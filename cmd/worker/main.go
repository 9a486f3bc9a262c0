package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reel/internal/worker/util"
	"reel/internal/pkg/logger"
	"reel/internal/storage"
	"reel/internal/worker"
	"reel/internal/worker/queue"
)

func main() {
	log := logger.New(logger.Config{
		Level:       util.Env("LOG_LEVEL", "info"),
		Format:      util.Env("LOG_FORMAT", "json"),
		ServiceName: "reel-worker",
	})

	dbURL := util.MustEnv("DATABASE_URL")
	redisAddr := util.MustEnv("REDIS_ADDR")
	queueName := util.Env("CLEANUP_QUEUE_NAME", queue.CleanupQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store, err := storage.NewStore(ctx)
	if err != nil {
		log.LogFatal("failed to initialize storage", err)
	}

	log.Info("reel worker started", "queue", queueName, "provider", store.Provider())

	err = worker.Run(ctx, worker.Deps{
		Pool:      pool,
		RDB:       rdb,
		Store:     store,
		QueueName: queueName,
		Log:       log,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.LogFatal("worker stopped", err)
	}
}
