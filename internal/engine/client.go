// Package engine talks to the remote render engine: job submission and
// progress polling. The engine itself is a black box; this package only
// carries the wire contract.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the render engine boundary.
type Client interface {
	// Submit hands a render job to the engine and returns its handle.
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	// Progress reports the state of a submitted job.
	Progress(ctx context.Context, renderID string) (ProgressReport, error)
}

// DownloadBehavior controls how the engine serves the rendered file.
type DownloadBehavior struct {
	Type     string `json:"type"`
	FileName string `json:"fileName"`
}

// SubmitRequest is the engine's job-submission payload. Override fields are
// omitted entirely when unset so the composition defaults stay in effect.
type SubmitRequest struct {
	FunctionName     string            `json:"functionName"`
	Composition      string            `json:"composition"`
	Codec            string            `json:"codec"`
	InputProps       map[string]any    `json:"inputProps"`
	ForceWidth       *int              `json:"forceWidth,omitempty"`
	ForceHeight      *int              `json:"forceHeight,omitempty"`
	FrameRange       *[2]int           `json:"frameRange,omitempty"`
	FramesPerWorker  int               `json:"framesPerWorker,omitempty"`
	DownloadBehavior *DownloadBehavior `json:"downloadBehavior,omitempty"`
}

// SubmitResult is the engine's answer to a submission.
type SubmitResult struct {
	RenderID   string `json:"renderId"`
	BucketName string `json:"bucketName"`
}

// ProgressReport is one observation of a job's state.
type ProgressReport struct {
	Done                  bool     `json:"done"`
	OverallProgress       float64  `json:"overallProgress"`
	OutputFile            *string  `json:"outputFile"`
	OutputSizeInBytes     *int64   `json:"outputSizeInBytes"`
	FatalErrorEncountered bool     `json:"fatalErrorEncountered"`
	Errors                []string `json:"errors,omitempty"`
}

// ErrorMessage flattens the report's errors into one message.
func (p ProgressReport) ErrorMessage() string {
	if len(p.Errors) == 0 {
		return "render failed"
	}
	return p.Errors[0]
}

// HTTPClient implements Client over the engine's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	var res SubmitResult
	if err := c.post(ctx, "/renders", req, &res); err != nil {
		return SubmitResult{}, err
	}
	if res.RenderID == "" {
		return SubmitResult{}, fmt.Errorf("engine returned no renderId")
	}
	return res, nil
}

func (c *HTTPClient) Progress(ctx context.Context, renderID string) (ProgressReport, error) {
	var rep ProgressReport
	if err := c.get(ctx, "/renders/"+renderID+"/progress", &rep); err != nil {
		return ProgressReport{}, err
	}
	return rep, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
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

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("engine http %d: %s", res.StatusCode, bytes.TrimSpace(body))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
