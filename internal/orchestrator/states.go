package orchestrator

// UploadPhase is the lifecycle of one upload attempt, independent of the
// render lifecycle.
type UploadPhase int

const (
	UploadIdle UploadPhase = iota
	UploadRequesting
	UploadTransferring
	Uploaded
	UploadFailed
)

func (p UploadPhase) String() string {
	switch p {
	case UploadIdle:
		return "idle"
	case UploadRequesting:
		return "requestingDescriptor"
	case UploadTransferring:
		return "transferring"
	case Uploaded:
		return "uploaded"
	case UploadFailed:
		return "uploadFailed"
	}
	return "unknown"
}

// Terminal reports whether the upload attempt has settled.
func (p UploadPhase) Terminal() bool { return p == Uploaded || p == UploadFailed }

// RenderPhase is the lifecycle of one submitted render.
type RenderPhase int

const (
	RenderIdle RenderPhase = iota
	RenderSubmitting
	RenderInProgress
	RenderDone
	RenderFailed
)

func (p RenderPhase) String() string {
	switch p {
	case RenderIdle:
		return "idle"
	case RenderSubmitting:
		return "submitting"
	case RenderInProgress:
		return "inProgress"
	case RenderDone:
		return "done"
	case RenderFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the render attempt has settled.
func (p RenderPhase) Terminal() bool { return p == RenderDone || p == RenderFailed }

// Display is the user-visible vocabulary projected from the two phase axes.
type Display string

const (
	DisplayIdle      Display = "idle"
	DisplayUploading Display = "uploading"
	DisplayRendering Display = "rendering"
	DisplayError     Display = "error"
	DisplayDone      Display = "done"
)

// Status is a read-only snapshot of the machine.
type Status struct {
	Display Display

	Upload UploadPhase
	Render RenderPhase

	// Progress is meaningful while Display == DisplayRendering; it is
	// monotonically non-decreasing in [0,1] until a terminal state.
	Progress float64

	// OutputURL and OutputSize are set when Display == DisplayDone.
	OutputURL  string
	OutputSize int64

	// Message carries the error text when Display == DisplayError.
	Message string

	// RenderID is the service-side handle of the current render, once
	// submission succeeded.
	RenderID string
}
