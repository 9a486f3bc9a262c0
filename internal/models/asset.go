package models

import "time"

// AssetReference points at a temporary uploaded object. URL is the publicly
// resolvable address the render engine reads from; Bucket and Key are what the
// storage gateway needs to delete the object again. Bucket and Key are either
// both set or both empty.
type AssetReference struct {
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Deletable reports whether the reference carries enough information to
// delete the underlying object.
func (r AssetReference) Deletable() bool {
	return r.Bucket != "" && r.Key != ""
}

// IsZero reports whether the reference is empty.
func (r AssetReference) IsZero() bool {
	return r.URL == "" && r.Bucket == "" && r.Key == ""
}

// UploadDescriptor is a time-limited capability to write exactly one object.
// The write itself happens outside this system; using the descriptor after
// ExpiresAt fails with an authorization error from the storage layer.
type UploadDescriptor struct {
	UploadURL   string         `json:"uploadUrl"`
	ContentType string         `json:"contentType"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Ref         AssetReference `json:"ref"`
}
