package composition

import (
	"testing"

	"reel/internal/pkg/errors"
)

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }

func TestRenderRequestValidate(t *testing.T) {
	valid := func() RenderRequest {
		return RenderRequest{
			ID:         Name,
			InputProps: InputProps{Title: "hello"},
		}
	}

	t.Run("valid minimal request", func(t *testing.T) {
		r := valid()
		if err := r.Validate(); err != nil {
			t.Fatalf("expected valid, got %v", err)
		}
	})

	t.Run("missing composition id", func(t *testing.T) {
		r := valid()
		r.ID = ""
		assertValidationError(t, r.Validate())
	})

	t.Run("missing title", func(t *testing.T) {
		r := valid()
		r.InputProps.Title = ""
		assertValidationError(t, r.Validate())
	})

	t.Run("non-positive dimensions", func(t *testing.T) {
		r := valid()
		r.InputProps.Width = intPtr(0)
		assertValidationError(t, r.Validate())

		r = valid()
		r.InputProps.Height = intPtr(-10)
		assertValidationError(t, r.Validate())
	})

	t.Run("zero duration is allowed", func(t *testing.T) {
		r := valid()
		r.InputProps.DurationInFrames = intPtr(0)
		if err := r.Validate(); err != nil {
			t.Fatalf("expected zero duration to pass validation, got %v", err)
		}
	})

	t.Run("negative duration rejected", func(t *testing.T) {
		r := valid()
		r.InputProps.DurationInFrames = intPtr(-1)
		assertValidationError(t, r.Validate())
	})

	t.Run("bucket without key rejected", func(t *testing.T) {
		r := valid()
		r.InputProps.S3Bucket = strPtr("my-bucket")
		assertValidationError(t, r.Validate())
	})

	t.Run("bucket and key together accepted", func(t *testing.T) {
		r := valid()
		r.InputProps.S3Bucket = strPtr("my-bucket")
		r.InputProps.S3Key = strPtr("uploads/123-clip.mp4")
		if err := r.Validate(); err != nil {
			t.Fatalf("expected valid, got %v", err)
		}
	})
}

func TestDefaults(t *testing.T) {
	p := Defaults()
	if p.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", p.Title)
	}
	if p.Rotation == nil || *p.Rotation != DefaultRotation {
		t.Errorf("expected default rotation, got %v", p.Rotation)
	}
	if p.Width != nil || p.DurationInFrames != nil {
		t.Error("expected dimension overrides to be absent by default")
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
