// Package localfs implements ports.ObjectStore on the local filesystem for
// development. Upload descriptors are HMAC-signed URLs pointing back at the
// API's own /uploads endpoint, so the client-side flow is identical to S3.
package localfs

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reel/internal/models"
	"reel/internal/ports"
	"reel/internal/storage/keys"
)

// BucketName is the pseudo-bucket localfs descriptors are issued against.
const BucketName = "local"

// Store keeps objects under root and signs upload URLs against baseURL.
type Store struct {
	root    string
	baseURL string
	secret  []byte
	now     func() time.Time
}

// New creates a store. baseURL is the externally reachable address of the
// API (e.g. http://localhost:8080); secret signs the upload URLs.
func New(root, baseURL, secret string) *Store {
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		now:     time.Now,
	}
}

func (s *Store) Provider() string { return "localfs" }

func (s *Store) Bucket() string { return BucketName }

// PresignPut issues a signed URL for one PUT against /uploads/{key}. The
// signature covers the key and the expiry instant, so a URL used after its
// window fails verification with an authorization error.
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
	expiresAt := now.Add(ttl)

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(expiresAt.Unix(), 10))
	q.Set("sig", s.sign(key, expiresAt.Unix()))

	objectURL := s.baseURL + "/uploads/" + key

	return models.UploadDescriptor{
		UploadURL:   objectURL + "?" + q.Encode(),
		ContentType: in.ContentType,
		ExpiresAt:   expiresAt,
		Ref: models.AssetReference{
			URL:    objectURL,
			Bucket: BucketName,
			Key:    key,
		},
	}, nil
}

// DeleteObject removes the file; a missing file is success.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	if bucket != BucketName {
		return fmt.Errorf("unknown bucket: %s", bucket)
	}
	p, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// VerifyPut checks the signature and expiry of an incoming signed PUT.
func (s *Store) VerifyPut(key, expStr, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed expiry")
	}
	if !hmac.Equal([]byte(s.sign(key, exp)), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	if s.now().UTC().Unix() > exp {
		return fmt.Errorf("descriptor expired")
	}
	return nil
}

// WriteObject stores the bytes for key in one bulk write.
func (s *Store) WriteObject(ctx context.Context, key string, r io.Reader) (int64, error) {
	dst, err := s.objectPath(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(f, r)
}

// OpenObject opens the stored bytes for serving.
func (s *Store) OpenObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	p, err := s.objectPath(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, 0, err
	}
	var size int64
	if st, statErr := f.Stat(); statErr == nil {
		size = st.Size()
	}
	return f, size, nil
}

func (s *Store) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

// objectPath resolves key under root and refuses path escapes.
func (s *Store) objectPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}
