// Package composition defines the video composition contract shared by the
// API, the render dispatcher and the CLI: the composition identifier, its
// default dimensions and the schema of the input properties.
package composition

import (
	"reel/internal/pkg/errors"
)

// Name is the identifier of the composition the engine renders.
const Name = "MyComp"

// Composition defaults. Overrides travel in InputProps and are only forwarded
// to the engine when explicitly set.
const (
	DefaultWidth            = 1280
	DefaultHeight           = 720
	DefaultFPS              = 30
	DefaultDurationInFrames = 200
)

// Default prop values.
const (
	DefaultTitle    = "Welcome to reel!"
	DefaultRotation = 5.0
	DefaultScale    = 0.95
)

// InputProps are the schema-validated properties of one render attempt.
// Pointer fields are optional: absent means "use the composition default",
// which is not the same as zero.
type InputProps struct {
	Title            string   `json:"title"`
	VideoSrc         *string  `json:"videoSrc,omitempty"`
	Rotation         *float64 `json:"rotation,omitempty"`
	Scale            *float64 `json:"scale,omitempty"`
	Width            *int     `json:"width,omitempty"`
	Height           *int     `json:"height,omitempty"`
	DurationInFrames *int     `json:"durationInFrames,omitempty"`
	FPS              *int     `json:"fps,omitempty"`
	S3Bucket         *string  `json:"s3Bucket,omitempty"`
	S3Key            *string  `json:"s3Key,omitempty"`
}

// RenderRequest is the body of a render submission.
type RenderRequest struct {
	ID         string     `json:"id"`
	InputProps InputProps `json:"inputProps"`
}

// Validate checks the request against the schema. It runs before any call
// reaches the render engine.
func (r *RenderRequest) Validate() error {
	if r.ID == "" {
		return errors.ValidationField("id", "composition id is required")
	}
	return r.InputProps.Validate()
}

// Validate checks semantic constraints the type system cannot express.
func (p *InputProps) Validate() error {
	if p.Title == "" {
		return errors.ValidationField("inputProps.title", "title is required")
	}
	if p.Width != nil && *p.Width <= 0 {
		return errors.ValidationField("inputProps.width", "width must be positive")
	}
	if p.Height != nil && *p.Height <= 0 {
		return errors.ValidationField("inputProps.height", "height must be positive")
	}
	if p.DurationInFrames != nil && *p.DurationInFrames < 0 {
		return errors.ValidationField("inputProps.durationInFrames", "durationInFrames must not be negative")
	}
	if p.FPS != nil && *p.FPS <= 0 {
		return errors.ValidationField("inputProps.fps", "fps must be positive")
	}

	// Deletion needs both coordinates; one without the other is a malformed
	// asset reference.
	hasBucket := p.S3Bucket != nil && *p.S3Bucket != ""
	hasKey := p.S3Key != nil && *p.S3Key != ""
	if hasBucket != hasKey {
		return errors.ValidationField("inputProps.s3Key", "s3Bucket and s3Key must be set together")
	}

	return nil
}

// Defaults returns the default input props.
func Defaults() InputProps {
	rotation := DefaultRotation
	scale := DefaultScale
	return InputProps{
		Title:    DefaultTitle,
		Rotation: &rotation,
		Scale:    &scale,
	}
}
