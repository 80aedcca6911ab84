package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "StockFeed/1.0 (news dashboard)"

// maxErrorBody bounds the response excerpt kept on a StatusError.
const maxErrorBody = 512

// ErrorHandler receives every failure of a Fetch call. It is required.
type ErrorHandler func(err error)

// Client issues JSON requests against the StockFeed backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. A zero timeout means requests
// only end when the context does.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get is Fetch with method GET and no body.
func (c *Client) Get(ctx context.Context, path string, out any, onError ErrorHandler) bool {
	return c.Fetch(ctx, path, http.MethodGet, nil, out, onError)
}

// Fetch sends the request and decodes the JSON response into out.
// It returns false after reporting the failure to onError when the request
// cannot be made, the status is not 2xx, or the body is not valid JSON.
// Failures are never returned as values. onError must not be nil.
func (c *Client) Fetch(ctx context.Context, path, method string, body, out any, onError ErrorHandler) bool {
	if onError == nil {
		panic("api: Fetch called with nil ErrorHandler")
	}

	target := c.resolve(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			onError(fmt.Errorf("marshaling request body: %w", err))
			return false
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		onError(fmt.Errorf("creating request: %w", err))
		return false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		onError(&TransportError{Method: method, URL: target, Err: err})
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		onError(&StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(excerpt)),
		})
		return false
	}

	if out == nil {
		return true
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		onError(&DecodeError{URL: target, Err: err})
		return false
	}
	return true
}

// resolve joins the base URL and path with exactly one slash.
func (c *Client) resolve(path string) string {
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
