// Package uploader moves one clip into temporary storage: it requests a
// presigned descriptor from the API and performs the single bulk write the
// descriptor authorizes. No retries and no multipart assembly; a failed or
// expired write surfaces as an error and the caller decides what to do.
package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"reel/internal/models"
	apperrors "reel/internal/pkg/errors"
	"reel/internal/renderapi"
)

// Presigner issues upload descriptors. Satisfied by *renderapi.Client.
type Presigner interface {
	Presign(ctx context.Context, req renderapi.PresignRequest) (renderapi.PresignResult, error)
}

// Input describes one clip to upload. Size must match the body's length;
// storage rejects mismatched writes.
type Input struct {
	FileName    string
	ContentType string
	Width       int
	Height      int
	Body        io.Reader
	Size        int64
}

type Uploader struct {
	api   Presigner
	httpc *http.Client
}

func New(api Presigner) *Uploader {
	return &Uploader{
		api:   api,
		httpc: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Upload presigns and writes the clip, returning the reference the render
// request and the eventual cleanup will use.
func (u *Uploader) Upload(ctx context.Context, in Input) (models.AssetReference, error) {
	if in.FileName == "" || in.ContentType == "" {
		return models.AssetReference{}, apperrors.New(apperrors.CodeUpload, "file name and content type are required")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return models.AssetReference{}, apperrors.New(apperrors.CodeUpload, "clip dimensions are required")
	}

	desc, err := u.api.Presign(ctx, renderapi.PresignRequest{
		Filename:    in.FileName,
		FileType:    in.ContentType,
		VideoWidth:  in.Width,
		VideoHeight: in.Height,
	})
	if err != nil {
		return models.AssetReference{}, apperrors.WrapWithCode(err, apperrors.CodeUpload, "uploader.Upload", "could not presign upload")
	}

	if err := u.put(ctx, desc.UploadURL, in); err != nil {
		return models.AssetReference{}, apperrors.WrapWithCode(err, apperrors.CodeUpload, "uploader.Upload", "upload failed")
	}

	return desc.Ref(), nil
}

func (u *Uploader) put(ctx context.Context, url string, in Input) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, in.Body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", in.ContentType)
	if in.Size > 0 {
		req.ContentLength = in.Size
	}

	res, err := u.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("storage put http %d", res.StatusCode)
	}
	return nil
}
