// Package serp is a client for SerpApi-compatible JSON search endpoints.
//
// The client issues one GET per query with the configured search
// parameters and decodes the organic results section. It carries no retry
// or rate-limit logic; pacing between probes belongs to the monitor.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the SerpApi search endpoint.
const DefaultBaseURL = "https://serpapi.com/search.json"

// maxBodySize caps response reads. Organic results for one query are a few
// hundred KB at most.
const maxBodySize = 10 * 1024 * 1024

// Client calls a SERP provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint (tests, self-hosted proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OrganicResult is one entry of the organic results section, in
// provider-reported order.
type OrganicResult struct {
	Position int64  `json:"position"`
	Link     string `json:"link"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// SearchInformation is provider metadata about the result set.
type SearchInformation struct {
	TotalResults *int64 `json:"total_results"`
}

// Response is the decoded provider payload. A response with no
// organic_results key decodes with a nil OrganicResults slice.
type Response struct {
	OrganicResults    []OrganicResult   `json:"organic_results"`
	SearchInformation SearchInformation `json:"search_information"`
}

// Search runs one query with the given search parameters and returns the
// decoded response. Params are passed through to the provider verbatim
// (engine, google_domain, gl, hl, location, ...).
func (c *Client) Search(ctx context.Context, query string, params map[string]string) (*Response, error) {
	q := url.Values{}
	q.Set("q", query)
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serp: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serp: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("serp: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("serp: read body: %w", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("serp: json decode: %w", err)
	}
	return &out, nil
}
