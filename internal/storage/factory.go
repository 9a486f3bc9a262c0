package storage

import (
	"context"
	"fmt"
	"os"

	"reel/internal/adapters/storage/localfs"
	"reel/internal/adapters/storage/s3store"
)

// NewStore builds the process-wide object store from environment
// configuration. It is constructed once at startup and injected everywhere a
// storage client is needed; nothing constructs ad-hoc clients per request.
func NewStore(ctx context.Context) (Store, error) {
	provider := os.Getenv("STORAGE_PROVIDER")
	if provider == "" {
		provider = "s3"
	}

	switch provider {
	case "s3":
		region := mustEnv("AWS_S3_UPLOAD_REGION")
		bucket := mustEnv("AWS_S3_UPLOAD_BUCKET_NAME")
		endpoint := os.Getenv("AWS_ENDPOINT_URL")
		return s3store.New(ctx, region, bucket, endpoint)

	case "localfs":
		root := mustEnv("STORAGE_LOCAL_ROOT")
		baseURL := mustEnv("STORAGE_PUBLIC_BASE_URL")
		secret := mustEnv("STORAGE_SIGNING_SECRET")
		return localfs.New(root, baseURL, secret), nil

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", provider)
	}
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
