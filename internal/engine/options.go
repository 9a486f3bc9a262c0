package engine

import (
	"fmt"

	"reel/internal/composition"
)

// Default submission tuning.
const (
	Codec            = "h264"
	FramesPerWorker  = 10
	DownloadFileName = "video.mp4"
)

// Sizing is the engine's compute-resource configuration. The engine derives
// the worker function's name from it, so both sides must agree on the values.
type Sizing struct {
	RAMMegabytes     int
	DiskMegabytes    int
	TimeoutInSeconds int
}

// FunctionName derives the deployed worker function's name from the sizing.
func (s Sizing) FunctionName() string {
	return fmt.Sprintf("reel-render-mem%dmb-disk%dmb-%dsec",
		s.RAMMegabytes, s.DiskMegabytes, s.TimeoutInSeconds)
}

// BuildSubmitRequest maps a validated render request onto the engine payload.
//
// Dimension and duration overrides are forwarded only when present: omitting
// an override keeps the composition's built-in default, while forcing a zero
// would break the render. The frame range uses an inclusive end, so a
// duration of n frames maps to [0, n-1]; a duration of 0 or absent leaves
// the default range untouched. An fps override is not supported by the
// engine and is dropped here.
func BuildSubmitRequest(sizing Sizing, req composition.RenderRequest) SubmitRequest {
	p := req.InputProps

	props := map[string]any{
		"title": p.Title,
	}
	if p.VideoSrc != nil {
		props["videoSrc"] = *p.VideoSrc
	}
	if p.Rotation != nil {
		props["rotation"] = *p.Rotation
	}
	if p.Scale != nil {
		props["scale"] = *p.Scale
	}
	if p.S3Bucket != nil {
		props["s3Bucket"] = *p.S3Bucket
	}
	if p.S3Key != nil {
		props["s3Key"] = *p.S3Key
	}

	out := SubmitRequest{
		FunctionName:    sizing.FunctionName(),
		Composition:     req.ID,
		Codec:           Codec,
		InputProps:      props,
		FramesPerWorker: FramesPerWorker,
		DownloadBehavior: &DownloadBehavior{
			Type:     "download",
			FileName: DownloadFileName,
		},
	}

	if p.Width != nil {
		w := *p.Width
		out.ForceWidth = &w
	}
	if p.Height != nil {
		h := *p.Height
		out.ForceHeight = &h
	}
	if p.DurationInFrames != nil && *p.DurationInFrames > 0 {
		fr := [2]int{0, *p.DurationInFrames - 1}
		out.FrameRange = &fr
	}

	return out
}
