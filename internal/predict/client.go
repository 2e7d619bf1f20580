// Package predict calls the external condition model over HTTP.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"plantar/internal/observability/middleware"

	"github.com/google/uuid"
)

// Request is the payload posted to the model endpoint.
type Request struct {
	SessionID *uuid.UUID      `json:"session_id,omitempty"`
	Metadata  map[string]any  `json:"metadata"`
	Pressure  json.RawMessage `json:"pressure,omitempty"`
}

// Result mirrors the model response. Absent or mistyped fields stay zero / nil so the
// caller can fall back field by field; mistyped ones are named in Dropped.
type Result struct {
	Condition    string
	Confidence   *float64
	ModelVersion string
	Dropped      []string
}

// maxResponseBytes bounds how much of a model response is read.
const maxResponseBytes = 1 << 20

type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a client for the model at url. timeout bounds every call
// in addition to any deadline on the caller's context.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:  strings.TrimSpace(url),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Predict(ctx context.Context, in Request) (Result, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return Result{}, fmt.Errorf("encode model request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if rid := middleware.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	if tid := middleware.TraceIDFromContext(ctx); tid != "" {
		req.Header.Set("X-Trace-ID", tid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("model returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&fields); err != nil {
		return Result{}, fmt.Errorf("decode model response: %w", err)
	}
	return decodeResult(fields), nil
}

// decodeResult reads each known field on its own so one bad value only drops itself.
// JSON null counts as absent.
func decodeResult(fields map[string]json.RawMessage) Result {
	var out Result
	field := func(name string, dst any) bool {
		raw, ok := fields[name]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			out.Dropped = append(out.Dropped, name)
			return false
		}
		return true
	}

	field("condition", &out.Condition)
	var conf float64
	if field("confidence", &conf) {
		out.Confidence = &conf
	}
	field("model_version", &out.ModelVersion)
	return out
}
