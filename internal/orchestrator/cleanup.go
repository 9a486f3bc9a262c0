package orchestrator

import (
	"context"
	"time"

	"reel/internal/models"
	"reel/internal/pkg/logger"
)

// Deleter removes a temporary uploaded object. Satisfied by
// *renderapi.Client.
type Deleter interface {
	Delete(ctx context.Context, ref models.AssetReference) error
}

const cleanupTimeout = 30 * time.Second

// Reconciler disposes of temporary assets after a render attempt settles.
// One attempt per reference, no retries: a failed deletion is logged for
// operators and otherwise ignored, because the render's own outcome has
// already been delivered. The server-side sweeper catches what this misses.
type Reconciler struct {
	api Deleter
	log *logger.Logger
}

func NewReconciler(api Deleter, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Reconciler{api: api, log: log.WithComponent("cleanup")}
}

// Reconcile deletes the referenced object, fire-and-forget. A reference
// without deletion coordinates is a no-op.
func (r *Reconciler) Reconcile(ctx context.Context, ref models.AssetReference) {
	if !ref.Deletable() {
		return
	}

	go func() {
		// Detached from the caller's lifetime; cleanup may outlive the
		// request that triggered it but not by much.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()

		if err := r.api.Delete(dctx, ref); err != nil {
			r.log.WithError(err).Warn("asset cleanup failed",
				"bucket", ref.Bucket,
				"key", ref.Key,
			)
			return
		}
		r.log.Info("asset cleaned up", "bucket", ref.Bucket, "key", ref.Key)
	}()
}
