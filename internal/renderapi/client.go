// Package renderapi is the Go client for the reel API service. The
// orchestrator and the reelctl CLI drive uploads, render submission and
// progress polling through it.
package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reel/internal/composition"
	"reel/internal/models"
)

// APIError is a non-2xx answer from the service, carrying the service's
// error envelope.
type APIError struct {
	StatusCode int
	ErrorText  string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %d %s: %s", e.StatusCode, e.ErrorText, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.ErrorText)
}

// PresignRequest asks for a time-limited write descriptor for one clip.
type PresignRequest struct {
	Filename    string `json:"filename"`
	FileType    string `json:"fileType"`
	VideoWidth  int    `json:"videoWidth"`
	VideoHeight int    `json:"videoHeight"`
}

// PresignResult carries the descriptor plus the coordinates the render and
// the eventual cleanup will need.
type PresignResult struct {
	UploadURL  string `json:"uploadUrl"`
	Key        string `json:"key"`
	FinalURL   string `json:"finalUrl"`
	BucketName string `json:"bucketName"`
}

// Ref converts the descriptor's coordinates into an asset reference.
func (p PresignResult) Ref() models.AssetReference {
	return models.AssetReference{URL: p.FinalURL, Bucket: p.BucketName, Key: p.Key}
}

// SubmitResult is the service's answer to a render submission.
type SubmitResult struct {
	RenderID   string `json:"renderId"`
	BucketName string `json:"bucketName"`
}

// ProgressResult is one progress observation as served by the API.
type ProgressResult struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`
	URL      string   `json:"url,omitempty"`
	Size     int64    `json:"size,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Done reports whether the render finished successfully.
func (p ProgressResult) Done() bool { return p.Status == "done" }

// Failed reports whether the render ended in error.
func (p ProgressResult) Failed() bool { return p.Status == "error" }

// Client talks to the reel API over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Presign requests an upload descriptor for a clip.
func (c *Client) Presign(ctx context.Context, req PresignRequest) (PresignResult, error) {
	var res PresignResult
	if err := c.post(ctx, "/api/uploads/presign", req, &res); err != nil {
		return PresignResult{}, err
	}
	return res, nil
}

// Delete removes a temporary uploaded object. Deleting an object that no
// longer exists is success.
func (c *Client) Delete(ctx context.Context, ref models.AssetReference) error {
	body := map[string]string{"s3Bucket": ref.Bucket, "s3Key": ref.Key}
	return c.post(ctx, "/api/uploads/delete", body, nil)
}

// SubmitRender submits a validated render request and returns its handle.
func (c *Client) SubmitRender(ctx context.Context, req composition.RenderRequest) (SubmitResult, error) {
	var res SubmitResult
	if err := c.post(ctx, "/api/renders", req, &res); err != nil {
		return SubmitResult{}, err
	}
	if res.RenderID == "" {
		return SubmitResult{}, fmt.Errorf("service returned no renderId")
	}
	return res, nil
}

// Progress fetches one progress observation for a render.
func (c *Client) Progress(ctx context.Context, renderID string) (ProgressResult, error) {
	var res ProgressResult
	if err := c.get(ctx, "/api/renders/"+renderID+"/progress", &res); err != nil {
		return ProgressResult{}, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))

		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			apiErr.ErrorText = envelope.Error
			apiErr.Message = envelope.Message
		} else {
			apiErr.ErrorText = string(bytes.TrimSpace(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
