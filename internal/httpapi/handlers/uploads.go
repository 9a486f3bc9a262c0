package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"reel/internal/httpkit"
	"reel/internal/ports"
)

type presignRequest struct {
	Filename    string `json:"filename"`
	FileType    string `json:"fileType"`
	VideoWidth  int    `json:"videoWidth"`
	VideoHeight int    `json:"videoHeight"`
}

type presignResponse struct {
	UploadURL  string `json:"uploadUrl"`
	Key        string `json:"key"`
	FinalURL   string `json:"finalUrl"`
	BucketName string `json:"bucketName"`
}

// PresignUpload issues a time-limited write descriptor for one clip. Only a
// credential is generated here; no bytes exist until the client uses it.
func (h *Handler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req presignRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body: "+err.Error())
		return
	}

	if req.Filename == "" || req.FileType == "" || req.VideoWidth <= 0 || req.VideoHeight <= 0 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR",
			"filename (string), fileType (string), videoWidth (number) and videoHeight (number) are required")
		return
	}

	log.Info("preparing upload",
		"filename", req.Filename,
		"file_type", req.FileType,
		"resolution", strconv.Itoa(req.VideoWidth)+"x"+strconv.Itoa(req.VideoHeight),
	)

	desc, err := h.store.PresignPut(ctx, ports.PresignInput{
		FileName:    req.Filename,
		ContentType: req.FileType,
		Width:       req.VideoWidth,
		Height:      req.VideoHeight,
		Expiry:      h.presignTTL,
	})
	if err != nil {
		log.WithError(err).Error("presign failed")
		httpkit.WriteErr(w, 500, "Failed to create pre-signed URL", err.Error())
		return
	}

	httpkit.WriteJSON(w, 200, presignResponse{
		UploadURL:  desc.UploadURL,
		Key:        desc.Ref.Key,
		FinalURL:   desc.Ref.URL,
		BucketName: desc.Ref.Bucket,
	})
}

type deleteRequest struct {
	S3Bucket string `json:"s3Bucket"`
	S3Key    string `json:"s3Key"`
}

// DeleteUpload removes a temporary uploaded object. An already-gone object is
// success: cleanup is best-effort and must never fail the render's own
// outcome.
func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req deleteRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body: "+err.Error())
		return
	}
	if req.S3Bucket == "" || req.S3Key == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "s3Bucket and s3Key are required in the request body")
		return
	}

	if err := h.store.DeleteObject(ctx, req.S3Bucket, req.S3Key); err != nil {
		log.WithError(err).Error("delete failed", "bucket", req.S3Bucket, "key", req.S3Key)
		httpkit.WriteErr(w, 500, "Failed to delete file", err.Error())
		return
	}

	// Stamp matching ledger rows so the sweeper does not delete twice.
	if h.ledger != nil {
		if err := h.ledger.MarkCleanedByAsset(ctx, req.S3Bucket, req.S3Key); err != nil {
			log.WithError(err).Warn("could not mark asset cleaned", "key", req.S3Key)
		}
	}

	log.Info("deleted upload", "bucket", req.S3Bucket, "key", req.S3Key)
	httpkit.WriteJSON(w, 200, map[string]string{"message": "File deleted successfully"})
}

// PutLocalObject accepts the signed bulk write issued by the localfs
// provider. The signature covers key and expiry; a write after the window
// fails with an authorization error, same as the S3 path.
func (h *Handler) PutLocalObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "*")

	if err := h.local.VerifyPut(key, r.URL.Query().Get("exp"), r.URL.Query().Get("sig")); err != nil {
		httpkit.WriteErr(w, 403, "UNAUTHORIZED", err.Error())
		return
	}

	n, err := h.local.WriteObject(ctx, key, r.Body)
	if err != nil {
		h.log.FromContext(ctx).WithError(err).Error("local write failed", "key", key)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "write failed")
		return
	}

	h.log.FromContext(ctx).Info("stored local object", "key", key, "size", n)
	w.WriteHeader(http.StatusOK)
}

// GetLocalObject serves a stored object so the engine can read it back.
func (h *Handler) GetLocalObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "*")

	rc, size, err := h.local.OpenObject(ctx, key)
	if err != nil {
		httpkit.WriteErr(w, 404, "NOT_FOUND", "object not found")
		return
	}
	defer rc.Close()

	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}
