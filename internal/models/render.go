package models

import "time"

// Render statuses as stored in the ledger.
const (
	RenderStatusQueued    = "QUEUED"
	RenderStatusRendering = "RENDERING"
	RenderStatusDone      = "DONE"
	RenderStatusFailed    = "FAILED"
)

// RenderRecord is one row of the render ledger.
type RenderRecord struct {
	ID             string
	EngineRenderID string
	Composition    string
	InputProps     string // JSON as submitted
	Status         string
	Progress       float64
	OutputURL      string
	OutputSize     int64
	ErrorText      string
	AssetBucket    string
	AssetKey       string
	CreatedAt      time.Time
	FinishedAt     *time.Time
	CleanedAt      *time.Time
}

// Terminal reports whether the record reached a final state.
func (r *RenderRecord) Terminal() bool {
	return r.Status == RenderStatusDone || r.Status == RenderStatusFailed
}

// HasAsset reports whether the render referenced a temporary uploaded asset.
func (r *RenderRecord) HasAsset() bool {
	return r.AssetBucket != "" && r.AssetKey != ""
}
