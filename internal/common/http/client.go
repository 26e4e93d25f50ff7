// internal/common/http/client.go

// Package http wraps the standard client for the service's outbound calls
// (the Gemini generateContent endpoint and the optional explainability
// service), pinning a per-client timeout at construction.
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is a timeout-bounded HTTP client shared by the outbound
// integrations. A zero timeout means the caller bounds each request with its
// own context deadline instead.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext issues the request under the given context, so per-attempt
// deadlines cut off slow upstream calls.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
