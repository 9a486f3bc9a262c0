package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reel/internal/adapters/storage/localfs"
	"reel/internal/cache"
	"reel/internal/engine"
	"reel/internal/httpapi"
	"reel/internal/httpapi/handlers"
	"reel/internal/pkg/logger"
	"reel/internal/pkg/shutdown"
	"reel/internal/repositories"
	"reel/internal/storage"
	"reel/internal/storage/keys"
	"reel/internal/worker/queue"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: "reel-api",
	})

	log.Info("starting reel API",
		"version", "0.1.0",
	)

	// Load configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := mustEnv(log, "REDIS_ADDR")
	engineBaseURL := mustEnv(log, "ENGINE_HTTP_BASEURL")

	sizing := engine.Sizing{
		RAMMegabytes:     intEnv(log, "ENGINE_RAM_MB", 2048),
		DiskMegabytes:    intEnv(log, "ENGINE_DISK_MB", 2048),
		TimeoutInSeconds: intEnv(log, "ENGINE_TIMEOUT_SECONDS", 240),
	}
	presignTTL := time.Duration(intEnv(log, "PRESIGN_TTL_SECONDS", int(keys.DefaultPresignTTL/time.Second))) * time.Second

	ctx := context.Background()

	// Initialize shutdown manager
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Connect to PostgreSQL
	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	// Verify PostgreSQL connection
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	log.Info("PostgreSQL connected")

	// Connect to Redis
	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	// Verify Redis connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected")

	// Initialize storage
	log.Info("initializing storage")
	store, err := storage.NewStore(ctx)
	if err != nil {
		log.LogFatal("failed to initialize storage", err)
	}
	log.Info("storage initialized", "provider", store.Provider(), "bucket", store.Bucket())

	deps := handlers.Deps{
		Ledger:     repositories.NewRenderRepository(pool),
		Cache:      cache.NewRedisProgressCache(rdb),
		Cleanup:    queue.NewRedisQueue(rdb, queue.CleanupQueueName),
		Store:      store,
		Engine:     engine.NewHTTPClient(engineBaseURL),
		Sizing:     sizing,
		PresignTTL: presignTTL,
		Pool:       pool,
		RDB:        rdb,
		Log:        log,
	}
	// The localfs provider serves the signed upload endpoints itself.
	if local, ok := store.(*localfs.Store); ok {
		deps.Local = local
	}
	router := httpapi.NewRouter(deps)

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + httpPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Register server shutdown
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", httpPort,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	// Wait for shutdown signal
	shutdownMgr.Wait()
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v
}

// mustEnv gets a required environment variable or exits.
func mustEnv(log *logger.Logger, key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Error("missing required environment variable", "key", key)
		os.Exit(1)
	}
	return v
}

// intEnv gets an integer environment variable with a default value.
func intEnv(log *logger.Logger, key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Error("invalid integer environment variable", "key", key, "value", v)
		os.Exit(1)
	}
	return n
}
