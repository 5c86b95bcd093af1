package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
)

// GoogleConfig configures the Google Custom Search searcher.
type GoogleConfig struct {
	APIKey     string
	EngineID   string
	BaseURL    string
	Timeout    time.Duration
	MaxResults int
}

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	cfg  GoogleConfig
	http *http.Client
}

// NewGoogleSearcher creates a GoogleSearcher.
func NewGoogleSearcher(cfg GoogleConfig) *GoogleSearcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	// The API rejects num above 10.
	cfg.MaxResults = min(cfg.MaxResults, 10)
	return &GoogleSearcher{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Name implements Searcher.
func (g *GoogleSearcher) Name() string { return "google" }

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search implements Searcher.
func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("key", g.cfg.APIKey)
	params.Set("cx", g.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(g.cfg.MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: google: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: google")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "search: google: read body")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("search: google: status %d", resp.StatusCode)
		if resilience.TransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "search: google: unmarshal response")
	}

	results := make([]model.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, model.SearchResult{Title: item.Title, Snippet: item.Snippet, URL: item.Link})
	}
	return limit(results, g.cfg.MaxResults), nil
}
