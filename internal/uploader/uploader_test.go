package uploader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "reel/internal/pkg/errors"
	"reel/internal/renderapi"
)

type fakePresigner struct {
	result renderapi.PresignResult
	err    error
	got    renderapi.PresignRequest
}

func (f *fakePresigner) Presign(_ context.Context, req renderapi.PresignRequest) (renderapi.PresignResult, error) {
	f.got = req
	return f.result, f.err
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("presigns then writes the clip", func(t *testing.T) {
		var (
			gotMethod string
			gotCT     string
			gotBody   string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.WriteHeader(200)
		}))
		defer srv.Close()

		api := &fakePresigner{result: renderapi.PresignResult{
			UploadURL:  srv.URL + "/uploads/clip.mp4",
			Key:        "uploads/123-clip.mp4",
			FinalURL:   "https://bucket.s3.us-east-1.amazonaws.com/uploads/123-clip.mp4",
			BucketName: "bucket",
		}}

		ref, err := New(api).Upload(ctx, Input{
			FileName:    "clip.mp4",
			ContentType: "video/mp4",
			Width:       1920,
			Height:      1080,
			Body:        strings.NewReader("clipdata"),
			Size:        8,
		})
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}

		if gotMethod != http.MethodPut {
			t.Errorf("method = %s, want PUT", gotMethod)
		}
		if gotCT != "video/mp4" {
			t.Errorf("content type = %q", gotCT)
		}
		if gotBody != "clipdata" {
			t.Errorf("body = %q", gotBody)
		}
		if ref.Key != "uploads/123-clip.mp4" || ref.Bucket != "bucket" {
			t.Errorf("unexpected ref: %+v", ref)
		}
		if api.got.VideoWidth != 1920 || api.got.VideoHeight != 1080 {
			t.Errorf("presign request missing dimensions: %+v", api.got)
		}
	})

	t.Run("rejected write is an upload error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(403)
		}))
		defer srv.Close()

		api := &fakePresigner{result: renderapi.PresignResult{UploadURL: srv.URL + "/uploads/x"}}

		_, err := New(api).Upload(ctx, Input{
			FileName:    "clip.mp4",
			ContentType: "video/mp4",
			Width:       1280,
			Height:      720,
			Body:        strings.NewReader("x"),
		})
		if err == nil {
			t.Fatal("expected error for rejected write")
		}
		if !apperrors.IsCode(err, apperrors.CodeUpload) {
			t.Errorf("expected UPLOAD_ERROR, got %v", err)
		}
	})

	t.Run("missing metadata fails before presign", func(t *testing.T) {
		api := &fakePresigner{}
		_, err := New(api).Upload(ctx, Input{FileName: "clip.mp4"})
		if err == nil {
			t.Fatal("expected error")
		}
		if api.got.Filename != "" {
			t.Error("presign should not have been called")
		}
	})
}
