// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL through the reader and returns its content.
	Read(ctx context.Context, targetURL string, opts ...ReadOption) (*ReadResponse, error)
	// Search runs a web search and returns the result list.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed reader response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content of the page.
type ReadData struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Usage       ReadUsage `json:"usage"`
}

// ReadUsage tracks token consumption.
type ReadUsage struct {
	Tokens int `json:"tokens"`
}

// SearchResponse is the parsed search response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult represents a single search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// StatusError is returned when the API answers with a non-success status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jina: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// ReadOption configures a read request.
type ReadOption func(http.Header)

// WithEngine selects the reader engine; "browser" renders JavaScript first.
func WithEngine(engine string) ReadOption {
	return func(h http.Header) { h.Set("X-Engine", engine) }
}

// WithReturnFormat selects the content format, e.g. "text" or "markdown".
func WithReturnFormat(format string) ReadOption {
	return func(h http.Header) { h.Set("X-Return-Format", format) }
}

// WithPageTimeout bounds how long the reader waits for the page to load.
func WithPageTimeout(d time.Duration) ReadOption {
	return func(h http.Header) { h.Set("X-Timeout", strconv.Itoa(int(d.Seconds()))) }
}

// SearchOption configures a search request.
type SearchOption func(url.Values)

// WithSiteFilter restricts search results to a domain.
func WithSiteFilter(domain string) SearchOption {
	return func(v url.Values) { v.Set("site", domain) }
}

// WithResultCount caps the number of results.
func WithResultCount(n int) SearchOption {
	return func(v url.Values) { v.Set("num", strconv.Itoa(n)) }
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom reader base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithSearchBaseURL sets a custom search base URL (for testing).
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) { c.searchBaseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey        string
	baseURL       string
	searchBaseURL string
	http          *http.Client
}

// NewClient creates a Jina client. An empty apiKey uses the anonymous tier.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

func (c *httpClient) get(ctx context.Context, op, reqURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "jina: %s: create request", op)
	}
	req.Header = header
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "jina: %s", op)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, eris.Wrapf(err, "jina: %s: read body", op)
	}
	if resp.StatusCode != http.StatusOK {
		return body, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	return body, nil
}

func (c *httpClient) Read(ctx context.Context, targetURL string, opts ...ReadOption) (*ReadResponse, error) {
	header := http.Header{}
	header.Set("X-Return-Format", "markdown")
	for _, opt := range opts {
		opt(header)
	}

	body, err := c.get(ctx, "read", c.baseURL+"/"+targetURL, header)
	if err != nil {
		return nil, err
	}

	var result ReadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: read: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	for _, opt := range opts {
		opt(params)
	}

	body, err := c.get(ctx, "search", c.searchBaseURL+"/?"+params.Encode(), http.Header{})
	if err != nil {
		// The search API answers 422 when a query has no results.
		var se *StatusError
		if eris.As(err, &se) && se.StatusCode == http.StatusUnprocessableEntity {
			return &SearchResponse{Code: se.StatusCode}, nil
		}
		return nil, err
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: search: unmarshal response")
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
