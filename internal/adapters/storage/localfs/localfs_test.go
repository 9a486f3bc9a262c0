package localfs

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"reel/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), "http://localhost:8080", "test-secret")
	return s
}

func TestPresignPut(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	d, err := s.PresignPut(context.Background(), ports.PresignInput{
		FileName:    "my clip.mp4",
		ContentType: "video/mp4",
		Expiry:      5 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}

	if d.Ref.Bucket != BucketName {
		t.Errorf("expected bucket %q, got %q", BucketName, d.Ref.Bucket)
	}
	if !strings.HasPrefix(d.Ref.Key, "uploads/1700000000000-") {
		t.Errorf("unexpected key: %s", d.Ref.Key)
	}
	if !strings.HasPrefix(d.UploadURL, "http://localhost:8080/uploads/"+d.Ref.Key+"?") {
		t.Errorf("unexpected upload url: %s", d.UploadURL)
	}
	if want := d.Ref.URL; !strings.HasPrefix(d.UploadURL, want) {
		t.Errorf("upload url %s should extend final url %s", d.UploadURL, want)
	}
	if got := d.ExpiresAt; !got.Equal(time.UnixMilli(1700000000000).UTC().Add(5 * time.Minute)) {
		t.Errorf("unexpected expiry: %s", got)
	}
}

func TestPresignPutRequiresFields(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.PresignPut(context.Background(), ports.PresignInput{ContentType: "video/mp4"}); err == nil {
		t.Error("expected error without fileName")
	}
	if _, err := s.PresignPut(context.Background(), ports.PresignInput{FileName: "a.mp4"}); err == nil {
		t.Error("expected error without contentType")
	}
}

func TestVerifyPut(t *testing.T) {
	s := newTestStore(t)
	base := time.Now()
	s.now = func() time.Time { return base }

	d, err := s.PresignPut(context.Background(), ports.PresignInput{
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
		Expiry:      time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(d.UploadURL)
	if err != nil {
		t.Fatal(err)
	}
	exp := u.Query().Get("exp")
	sig := u.Query().Get("sig")

	t.Run("valid signature accepted", func(t *testing.T) {
		if err := s.VerifyPut(d.Ref.Key, exp, sig); err != nil {
			t.Errorf("expected valid, got %v", err)
		}
	})

	t.Run("tampered key rejected", func(t *testing.T) {
		if err := s.VerifyPut("uploads/other.mp4", exp, sig); err == nil {
			t.Error("expected signature mismatch")
		}
	})

	t.Run("tampered expiry rejected", func(t *testing.T) {
		if err := s.VerifyPut(d.Ref.Key, "9999999999", sig); err == nil {
			t.Error("expected signature mismatch for altered expiry")
		}
	})

	t.Run("expired descriptor rejected", func(t *testing.T) {
		s.now = func() time.Time { return base.Add(2 * time.Minute) }
		defer func() { s.now = func() time.Time { return base } }()

		err := s.VerifyPut(d.Ref.Key, exp, sig)
		if err == nil {
			t.Fatal("expected expiry failure")
		}
		if !strings.Contains(err.Error(), "expired") {
			t.Errorf("expected expiry error, got %v", err)
		}
	})
}

func TestWriteOpenDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.WriteObject(ctx, "uploads/1-clip.mp4", strings.NewReader("fake video bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len("fake video bytes")) {
		t.Errorf("expected %d bytes written, got %d", len("fake video bytes"), n)
	}

	rc, size, err := s.OpenObject(ctx, "uploads/1-clip.mp4")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if size != n {
		t.Errorf("expected size %d, got %d", n, size)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "fake video bytes" {
		t.Errorf("unexpected content: %q", data)
	}

	if err := s.DeleteObject(ctx, BucketName, "uploads/1-clip.mp4"); err != nil {
		t.Fatal(err)
	}

	t.Run("second delete is success", func(t *testing.T) {
		if err := s.DeleteObject(ctx, BucketName, "uploads/1-clip.mp4"); err != nil {
			t.Errorf("expected idempotent delete, got %v", err)
		}
	})

	t.Run("unknown bucket rejected", func(t *testing.T) {
		if err := s.DeleteObject(ctx, "other", "uploads/1-clip.mp4"); err == nil {
			t.Error("expected error for unknown bucket")
		}
	})
}

func TestObjectPathEscapes(t *testing.T) {
	s := newTestStore(t)
	for _, key := range []string{"../evil", "/abs/path", ".."} {
		if _, err := s.objectPath(key); err == nil {
			t.Errorf("expected path escape %q to be rejected", key)
		}
	}
}
