package handlers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reel/internal/adapters/storage/localfs"
	"reel/internal/engine"
	"reel/internal/models"
	"reel/internal/pkg/logger"
	"reel/internal/ports"
)

// RenderLedger is the slice of the render repository the handlers use.
type RenderLedger interface {
	Create(ctx context.Context, rec *models.RenderRecord) error
	Get(ctx context.Context, id string) (*models.RenderRecord, error)
	SetProgress(ctx context.Context, id string, progress float64) (float64, error)
	MarkDone(ctx context.Context, id, outputURL string, outputSize int64) (bool, error)
	MarkFailed(ctx context.Context, id, errorText string) (bool, error)
	MarkCleanedByAsset(ctx context.Context, bucket, key string) error
}

// ProgressCache caches progress payloads so polling clients don't turn every
// poll into an engine round-trip.
type ProgressCache interface {
	Get(ctx context.Context, renderID string) ([]byte, bool)
	Set(ctx context.Context, renderID string, payload []byte, ttl time.Duration)
}

// CleanupQueue schedules best-effort deletion of a render's temporary asset.
type CleanupQueue interface {
	Push(ctx context.Context, renderID string) error
}

type Deps struct {
	Ledger     RenderLedger
	Cache      ProgressCache
	Cleanup    CleanupQueue
	Store      ports.ObjectStore
	Engine     engine.Client
	Sizing     engine.Sizing
	PresignTTL time.Duration

	// Local is set only when the localfs provider is active; it backs the
	// signed /uploads PUT endpoint.
	Local *localfs.Store

	// Pool and RDB are used by the deep health check only.
	Pool *pgxpool.Pool
	RDB  *redis.Client

	Log *logger.Logger
}

type Handler struct {
	ledger     RenderLedger
	cache      ProgressCache
	cleanup    CleanupQueue
	store      ports.ObjectStore
	eng        engine.Client
	sizing     engine.Sizing
	presignTTL time.Duration
	local      *localfs.Store
	pool       *pgxpool.Pool
	rdb        *redis.Client
	log        *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		ledger:     d.Ledger,
		cache:      d.Cache,
		cleanup:    d.Cleanup,
		store:      d.Store,
		eng:        d.Engine,
		sizing:     d.Sizing,
		presignTTL: d.PresignTTL,
		local:      d.Local,
		pool:       d.Pool,
		rdb:        d.RDB,
		log:        log.WithComponent("httpapi"),
	}
}
