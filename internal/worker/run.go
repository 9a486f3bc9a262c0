package worker

import (
	"context"
	"time"

	"reel/internal/pkg/logger"
	"reel/internal/repositories"
	"reel/internal/worker/queue"
)

// Run consumes the cleanup queue until ctx is canceled. Each element is a
// render ID whose temporary upload asset should be deleted from storage.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	queueName := d.QueueName
	if queueName == "" {
		queueName = queue.CleanupQueueName
	}
	q := queue.NewRedisQueue(d.RDB, queueName)
	repo := repositories.NewRenderRepository(d.Pool)

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		// Use a separate context with timeout for queue operations
		popCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		renderID, err := q.Pop(popCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying",
				"error", err.Error(),
			)
			time.Sleep(1 * time.Second)
			continue
		}

		if renderID == "" {
			continue
		}

		jobCtx := logger.ContextWithRenderID(ctx, renderID)
		jobLog := log.WithRenderID(renderID)

		start := time.Now()
		if err := cleanupRender(jobCtx, repo, d.Store, renderID); err != nil {
			jobLog.Error("cleanup failed",
				"error", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		} else {
			jobLog.Info("cleanup completed",
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}

type cleanupLedger interface {
	ClaimCleanup(ctx context.Context, id string) (bucket, key string, ok bool, err error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, bucket, key string) error
}

// cleanupRender claims the render's asset and deletes it from storage. The
// claim is an atomic single-shot stamp, so a render ID that appears twice on
// the queue deletes at most once.
func cleanupRender(ctx context.Context, ledger cleanupLedger, store objectDeleter, renderID string) error {
	bucket, key, ok, err := ledger.ClaimCleanup(ctx, renderID)
	if err != nil {
		return err
	}
	if !ok {
		// Already claimed, nothing recorded, or the asset was removed by
		// an explicit delete request.
		return nil
	}
	return store.DeleteObject(ctx, bucket, key)
}
