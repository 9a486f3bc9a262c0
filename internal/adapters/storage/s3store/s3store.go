// Package s3store implements ports.ObjectStore against S3: presigned PUT
// descriptors for browser-direct uploads, and idempotent deletion.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"reel/internal/models"
	"reel/internal/ports"
	"reel/internal/storage/keys"
)

// Store issues presigned PUT URLs against one bucket and deletes objects.
type Store struct {
	region    string
	bucket    string
	client    *s3.Client
	presigner *s3.PresignClient
	now       func() time.Time
}

// New loads AWS configuration and builds the store. A non-empty endpoint
// switches to path-style addressing for LocalStack-style setups.
func New(ctx context.Context, region, bucket, endpoint string) (*Store, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, awsCfg.WithBaseEndpoint(endpoint))
	}
	cfg, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &Store{
		region:    region,
		bucket:    bucket,
		client:    client,
		presigner: s3.NewPresignClient(client),
		now:       time.Now,
	}, nil
}

func (s *Store) Provider() string { return "s3" }

func (s *Store) Bucket() string { return s.bucket }

// PresignPut issues a time-limited write descriptor. Nothing is written and
// no quota is consumed until the descriptor is used.
func (s *Store) PresignPut(ctx context.Context, in ports.PresignInput) (models.UploadDescriptor, error) {
	if in.FileName == "" {
		return models.UploadDescriptor{}, fmt.Errorf("fileName is required")
	}
	if in.ContentType == "" {
		return models.UploadDescriptor{}, fmt.Errorf("contentType is required")
	}
	ttl := in.Expiry
	if ttl <= 0 {
		ttl = keys.DefaultPresignTTL
	}

	now := s.now().UTC()
	key := keys.BuildUpload(in.FileName, now)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(in.ContentType),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return models.UploadDescriptor{}, fmt.Errorf("presign put: %w", err)
	}

	return models.UploadDescriptor{
		UploadURL:   req.URL,
		ContentType: in.ContentType,
		ExpiresAt:   now.Add(ttl),
		Ref: models.AssetReference{
			URL:    s.objectURL(key),
			Bucket: s.bucket,
			Key:    key,
		},
	}, nil
}

// DeleteObject removes the object. Deleting an already-deleted or
// never-existing key is success: cleanup is best-effort and callers treat
// "already gone" as done.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	if bucket == "" || key == "" {
		return fmt.Errorf("bucket and key are required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey", "NoSuchBucket", "NotFound":
				return nil
			}
		}
		return fmt.Errorf("delete object s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *Store) objectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
