package ports

import (
	"context"
	"time"

	"reel/internal/models"
)

// PresignInput carries what the gateway needs to issue one upload descriptor.
// Width and Height are the clip's probed dimensions, kept for audit logging.
type PresignInput struct {
	FileName    string
	ContentType string
	Width       int
	Height      int
	Expiry      time.Duration
}

// ObjectStore: implementations issue write-capability descriptors and delete
// objects (s3store, localfs). Issuing a descriptor has no storage side effect;
// no bytes exist until the descriptor is used.
type ObjectStore interface {
	Provider() string

	// Bucket is the storage namespace descriptors are issued against.
	Bucket() string

	PresignPut(ctx context.Context, in PresignInput) (models.UploadDescriptor, error)

	// DeleteObject is idempotent from the caller's perspective: deleting an
	// already-deleted or never-existing key returns nil.
	DeleteObject(ctx context.Context, bucket, key string) error
}
