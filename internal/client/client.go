// Package client is the HTTP wire client for the Hirmes service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/pkg/version"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// Config holds configuration for the service client.
type Config struct {
	// BaseURL is the service root, e.g. http://127.0.0.1:5000.
	BaseURL string
	// Timeout bounds every request except indexing.
	Timeout time.Duration
	// IndexTimeout bounds indexing requests. Zero means unbounded.
	IndexTimeout time.Duration
	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// Client talks to the Hirmes service over HTTP/JSON.
type Client struct {
	baseURL      string
	timeout      time.Duration
	indexTimeout time.Duration
	http         *http.Client
}

// New creates a new service client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		timeout:      cfg.Timeout,
		indexTimeout: cfg.IndexTimeout,
		http:         hc,
	}
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Index submits an indexing request. It can run for minutes.
func (c *Client) Index(ctx context.Context, req IndexRequest) (*IndexResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, herrors.ValidationError("invalid indexing request", err)
	}

	var resp IndexResponse
	if err := c.do(ctx, c.indexTimeout, http.MethodPost, EndpointIndexing, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, herrors.ServiceError(EndpointIndexing, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// Search submits a query. A response whose body carries an error field is
// returned as a service error with that message.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.do(ctx, c.timeout, http.MethodPost, EndpointSearch, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, herrors.ServiceError(EndpointSearch, http.StatusOK, resp.Error)
	}
	return &resp, nil
}

// CheckTagging probes the optional tagging endpoint with OPTIONS.
// A nil error means the capability is available.
func (c *Client) CheckTagging(ctx context.Context) error {
	return c.do(ctx, c.timeout, http.MethodOptions, EndpointTaggingCheck, nil, nil)
}

// Tag fetches the tags for one document path.
func (c *Client) Tag(ctx context.Context, path string) (string, error) {
	var resp TagResponse
	if err := c.do(ctx, c.timeout, http.MethodPost, EndpointTaggingTags, TagRequest{Path: path}, &resp); err != nil {
		return "", err
	}
	return string(resp.Tag), nil
}

// OpenFile asks the service to open a document.
func (c *Client) OpenFile(ctx context.Context, path string) error {
	var resp errorBody
	if err := c.do(ctx, c.timeout, http.MethodPost, EndpointOpenFile, OpenFileRequest{Path: path}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return herrors.ServiceError(EndpointOpenFile, http.StatusOK, resp.Error)
	}
	return nil
}

// do performs one request. Non-2xx is a failure regardless of body; an error
// field in a failed body becomes the service message. out may be nil.
func (c *Client) do(ctx context.Context, timeout time.Duration, method, endpoint string, in, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return herrors.InternalError("failed to encode request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return herrors.InternalError("failed to build request", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("request_failed",
			slog.String("request_id", reqID),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		if ctx.Err() == context.DeadlineExceeded {
			return herrors.New(herrors.ErrCodeTimeout,
				fmt.Sprintf("%s: request timed out", endpoint), err).
				WithDetail("endpoint", endpoint)
		}
		return herrors.TransportError(endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return herrors.TransportError(endpoint, err)
	}

	slog.Debug("request_complete",
		slog.String("request_id", reqID),
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return herrors.ServiceError(endpoint, resp.StatusCode, eb.Error)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return herrors.DecodeError(endpoint, err)
	}
	return nil
}
