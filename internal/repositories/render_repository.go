package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reel/internal/models"
)

var ErrRenderNotFound = errors.New("render not found")

// RenderRepository persists the render ledger.
//
// Schema:
//
//	CREATE TABLE renders (
//	    id               TEXT PRIMARY KEY,
//	    engine_render_id TEXT NOT NULL,
//	    composition      TEXT NOT NULL,
//	    input_props_json TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    progress         DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    output_url       TEXT,
//	    output_size      BIGINT,
//	    error_text       TEXT,
//	    asset_bucket     TEXT,
//	    asset_key        TEXT,
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    finished_at      TIMESTAMPTZ,
//	    cleaned_at       TIMESTAMPTZ
//	);
type RenderRepository struct {
	db *pgxpool.Pool
}

func NewRenderRepository(db *pgxpool.Pool) *RenderRepository {
	return &RenderRepository{db: db}
}

func (r *RenderRepository) Create(ctx context.Context, rec *models.RenderRecord) error {
	rec.CreatedAt = time.Now().UTC()
	if rec.Status == "" {
		rec.Status = models.RenderStatusQueued
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO renders (id, engine_render_id, composition, input_props_json, status,
		                     progress, asset_bucket, asset_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, rec.ID, rec.EngineRenderID, rec.Composition, rec.InputProps, rec.Status,
		rec.Progress, nullIfEmpty(rec.AssetBucket), nullIfEmpty(rec.AssetKey), rec.CreatedAt)
	return err
}

func (r *RenderRepository) Get(ctx context.Context, id string) (*models.RenderRecord, error) {
	var (
		rec        models.RenderRecord
		outputURL  *string
		outputSize *int64
		errorText  *string
		bucket     *string
		key        *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, engine_render_id, composition, input_props_json, status, progress,
		       output_url, output_size, error_text, asset_bucket, asset_key,
		       created_at, finished_at, cleaned_at
		FROM renders WHERE id=$1
	`, id).Scan(&rec.ID, &rec.EngineRenderID, &rec.Composition, &rec.InputProps,
		&rec.Status, &rec.Progress, &outputURL, &outputSize, &errorText,
		&bucket, &key, &rec.CreatedAt, &rec.FinishedAt, &rec.CleanedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRenderNotFound
		}
		return nil, err
	}

	rec.OutputURL = deref(outputURL)
	rec.OutputSize = derefInt(outputSize)
	rec.ErrorText = deref(errorText)
	rec.AssetBucket = deref(bucket)
	rec.AssetKey = deref(key)
	return &rec, nil
}

// SetProgress records an observed progress value and returns the effective
// one. Progress never goes backwards: the stored value is the running
// maximum, so an engine hiccup cannot make the bar jump back.
func (r *RenderRepository) SetProgress(ctx context.Context, id string, progress float64) (float64, error) {
	var effective float64
	err := r.db.QueryRow(ctx, `
		UPDATE renders
		SET progress = GREATEST(progress, $2), status = $3
		WHERE id=$1 AND status NOT IN ($4, $5)
		RETURNING progress
	`, id, progress, models.RenderStatusRendering,
		models.RenderStatusDone, models.RenderStatusFailed).Scan(&effective)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRenderNotFound
		}
		return 0, err
	}
	return effective, nil
}

// MarkDone finalizes a successful render. It reports whether this call was
// the one that performed the transition; only the first observer of a
// terminal state schedules cleanup.
func (r *RenderRepository) MarkDone(ctx context.Context, id, outputURL string, outputSize int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE renders
		SET status=$2, progress=1, output_url=$3, output_size=$4, finished_at=NOW()
		WHERE id=$1 AND status NOT IN ($2, $5)
	`, id, models.RenderStatusDone, outputURL, outputSize, models.RenderStatusFailed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed finalizes a failed render; same first-observer semantics as
// MarkDone.
func (r *RenderRepository) MarkFailed(ctx context.Context, id, errorText string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE renders
		SET status=$2, error_text=$3, finished_at=NOW()
		WHERE id=$1 AND status NOT IN ($2, $4)
	`, id, models.RenderStatusFailed, errorText, models.RenderStatusDone)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimCleanup atomically claims the render's temporary asset for deletion.
// The cleaned_at stamp is the single-shot guard: the second caller gets
// ok=false and must not delete again.
func (r *RenderRepository) ClaimCleanup(ctx context.Context, id string) (bucket, key string, ok bool, err error) {
	err = r.db.QueryRow(ctx, `
		UPDATE renders
		SET cleaned_at=NOW()
		WHERE id=$1 AND cleaned_at IS NULL
		  AND asset_bucket IS NOT NULL AND asset_key IS NOT NULL
		RETURNING asset_bucket, asset_key
	`, id).Scan(&bucket, &key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return bucket, key, true, nil
}

// MarkCleanedByAsset stamps any ledger rows referencing the asset, so the
// sweeper skips assets a client already deleted through the delete endpoint.
func (r *RenderRepository) MarkCleanedByAsset(ctx context.Context, bucket, key string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE renders SET cleaned_at=NOW()
		WHERE asset_bucket=$1 AND asset_key=$2 AND cleaned_at IS NULL
	`, bucket, key)
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
