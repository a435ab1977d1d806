package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/pkg/config"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/middleware/requestid"
)

const maxBodyBytes = 1 << 20

// Observer receives timing for every backend call.
type Observer interface {
	ObserveUpstreamCall(method, endpoint string, status int, duration time.Duration)
}

// StatusError carries the raw backend status behind a typed error.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Request describes one call against the backend API.
type Request struct {
	Method string
	Path   string
	Token  string
	Body   interface{}
}

// Client issues JSON requests against a base-URL-configured backend.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// New constructs a Client from API configuration.
func New(cfg config.APIConfig, observer Observer, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// Get fetches path and decodes the body into out.
func (c *Client) Get(ctx context.Context, token, path string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Token: token}, out)
}

// Post sends body to path.
func (c *Client) Post(ctx context.Context, token, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Token: token, Body: body}, out)
}

// Patch sends a partial update to path.
func (c *Client) Patch(ctx context.Context, token, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Token: token, Body: body}, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, token, path string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Token: token}, out)
}

// Do performs req. Non-2xx answers come back as *errors.Error: 404 maps to
// NOT_FOUND, any other status to UPSTREAM_ERROR, transport failures to
// UPSTREAM_UNAVAILABLE.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	path := strings.TrimLeft(req.Path, "/")
	endpoint := endpointLabel(path)

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+"/"+path, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		httpReq.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.observe(req.Method, endpoint, 0, duration)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return appErrors.Wrap(ctxErr, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "request cancelled")
		}
		c.logger.Warn("backend unreachable", zap.String("method", req.Method), zap.String("endpoint", endpoint), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()
	c.observe(req.Method, endpoint, resp.StatusCode, duration)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to read backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := &StatusError{Method: req.Method, Path: path, Status: resp.StatusCode}
		message := backendMessage(raw)
		if resp.StatusCode == http.StatusNotFound {
			if message == "" {
				message = appErrors.ErrNotFound.Message
			}
			return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, http.StatusNotFound, message)
		}
		if message == "" {
			message = appErrors.ErrUpstream.Message
		}
		return appErrors.Wrap(cause, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed backend response")
	}
	return nil
}

// StatusCode extracts the backend HTTP status from err, or 0 when the
// request never produced a response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

func (c *Client) observe(method, endpoint string, status int, duration time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstreamCall(method, endpoint, status, duration)
}

func backendMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

// endpointLabel collapses the trailing identifier so metrics stay low-cardinality.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return path
	}
	parts[len(parts)-1] = ":id"
	return strings.Join(parts, "/")
}
