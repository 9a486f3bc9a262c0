package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"reel/internal/composition"
	"reel/internal/engine"
	"reel/internal/httpkit"
	"reel/internal/models"
	"reel/internal/pkg/logger"
)

// Progress cache windows. Terminal payloads never change, so they can sit in
// the cache much longer than in-flight ones.
const (
	renderingCacheTTL = 2 * time.Second
	terminalCacheTTL  = 60 * time.Second
)

type submitResponse struct {
	RenderID   string `json:"renderId"`
	BucketName string `json:"bucketName"`
}

// progressResponse is the wire shape of one progress observation.
type progressResponse struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`
	URL      string   `json:"url,omitempty"`
	Size     int64    `json:"size,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// PostRender validates a render request and submits it to the engine.
// Validation happens entirely before any engine call: an unknown field or a
// mistyped value never leaves this process.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req composition.RenderRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid render request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", err.Error())
		return
	}

	submitReq := engine.BuildSubmitRequest(h.sizing, req)

	res, err := h.eng.Submit(ctx, submitReq)
	if err != nil {
		log.WithError(err).Error("engine submission failed")
		httpkit.WriteErr(w, 502, "SUBMISSION_ERROR", err.Error())
		return
	}

	renderID := ulid.Make().String()
	propsJSON, _ := json.Marshal(req.InputProps)

	rec := &models.RenderRecord{
		ID:             renderID,
		EngineRenderID: res.RenderID,
		Composition:    req.ID,
		InputProps:     string(propsJSON),
		Status:         models.RenderStatusQueued,
	}
	if req.InputProps.S3Bucket != nil && req.InputProps.S3Key != nil {
		rec.AssetBucket = *req.InputProps.S3Bucket
		rec.AssetKey = *req.InputProps.S3Key
	}

	if err := h.ledger.Create(ctx, rec); err != nil {
		log.WithError(err).Error("ledger insert failed", "render_id", renderID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "could not record render")
		return
	}

	log.Info("render submitted",
		"render_id", renderID,
		"engine_render_id", res.RenderID,
		"composition", req.ID,
		"has_asset", rec.HasAsset(),
	)

	httpkit.WriteJSON(w, 200, submitResponse{RenderID: renderID, BucketName: res.BucketName})
}

// GetRenderProgress reports one progress observation for a render. Updates
// are monotonically non-decreasing until a terminal state; once terminal, the
// payload is frozen and no further engine polls happen for that render.
func (h *Handler) GetRenderProgress(w http.ResponseWriter, r *http.Request) {
	renderID := chi.URLParam(r, "renderId")
	ctx := logger.ContextWithRenderID(r.Context(), renderID)
	log := h.log.FromContext(ctx)

	if payload, ok := h.cache.Get(ctx, renderID); ok {
		writeRawJSON(w, payload)
		return
	}

	rec, err := h.ledger.Get(ctx, renderID)
	if err != nil {
		httpkit.WriteErr(w, 404, "NOT_FOUND", "render not found: "+renderID)
		return
	}

	// Terminal renders answer from the ledger; the engine is done with them.
	if rec.Terminal() {
		h.respondProgress(ctx, w, renderID, responseFromRecord(rec), terminalCacheTTL)
		return
	}

	rep, err := h.eng.Progress(ctx, rec.EngineRenderID)
	if err != nil {
		log.WithError(err).Error("engine progress poll failed")
		httpkit.WriteErr(w, 503, "UNAVAILABLE", "render engine unavailable")
		return
	}

	switch {
	case rep.FatalErrorEncountered:
		msg := rep.ErrorMessage()
		first, err := h.ledger.MarkFailed(ctx, renderID, msg)
		if err != nil {
			log.WithError(err).Error("could not finalize failed render")
		}
		if first {
			h.scheduleCleanup(ctx, rec)
		}
		h.respondProgress(ctx, w, renderID, progressResponse{Status: "error", Message: msg}, terminalCacheTTL)

	case rep.Done:
		var (
			url  string
			size int64
		)
		if rep.OutputFile != nil {
			url = *rep.OutputFile
		}
		if rep.OutputSizeInBytes != nil {
			size = *rep.OutputSizeInBytes
		}
		first, err := h.ledger.MarkDone(ctx, renderID, url, size)
		if err != nil {
			log.WithError(err).Error("could not finalize done render")
		}
		if first {
			h.scheduleCleanup(ctx, rec)
		}
		h.respondProgress(ctx, w, renderID, progressResponse{Status: "done", URL: url, Size: size}, terminalCacheTTL)

	default:
		effective, err := h.ledger.SetProgress(ctx, renderID, rep.OverallProgress)
		if err != nil {
			log.WithError(err).Warn("could not record progress")
			effective = rep.OverallProgress
		}
		h.respondProgress(ctx, w, renderID,
			progressResponse{Status: "rendering", Progress: &effective}, renderingCacheTTL)
	}
}

// scheduleCleanup queues the render's temporary asset for best-effort
// deletion. Only the first observer of the terminal state gets here, so the
// queue sees each render at most once.
func (h *Handler) scheduleCleanup(ctx context.Context, rec *models.RenderRecord) {
	if !rec.HasAsset() || h.cleanup == nil {
		return
	}
	if err := h.cleanup.Push(ctx, rec.ID); err != nil {
		h.log.FromContext(ctx).WithError(err).Warn("could not enqueue cleanup", "render_id", rec.ID)
	}
}

func (h *Handler) respondProgress(ctx context.Context, w http.ResponseWriter, renderID string, res progressResponse, ttl time.Duration) {
	payload, err := json.Marshal(res)
	if err != nil {
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "encode failed")
		return
	}
	h.cache.Set(ctx, renderID, payload, ttl)
	writeRawJSON(w, payload)
}

func responseFromRecord(rec *models.RenderRecord) progressResponse {
	if rec.Status == models.RenderStatusFailed {
		return progressResponse{Status: "error", Message: rec.ErrorText}
	}
	return progressResponse{Status: "done", URL: rec.OutputURL, Size: rec.OutputSize}
}

func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	_, _ = w.Write(payload)
}
