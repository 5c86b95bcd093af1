package search

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
)

// DuckDuckGoConfig configures the DuckDuckGo HTML searcher.
type DuckDuckGoConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxResults int
}

// DuckDuckGoSearcher scrapes the DuckDuckGo HTML results page.
type DuckDuckGoSearcher struct {
	cfg  DuckDuckGoConfig
	http *http.Client
}

// NewDuckDuckGoSearcher creates a DuckDuckGoSearcher.
func NewDuckDuckGoSearcher(cfg DuckDuckGoConfig) *DuckDuckGoSearcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://html.duckduckgo.com/html/"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &DuckDuckGoSearcher{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Name implements Searcher.
func (d *DuckDuckGoSearcher) Name() string { return "duckduckgo" }

// Search implements Searcher.
func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	reqURL := d.cfg.BaseURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: duckduckgo: create request")
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: duckduckgo")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := eris.Errorf("search: duckduckgo: status %d", resp.StatusCode)
		if resilience.TransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, eris.Wrap(err, "search: duckduckgo: parse html")
	}

	var results []model.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		results = append(results, model.SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			URL:     resolveRedirect(href),
		})
		return len(results) < d.cfg.MaxResults
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" && strings.HasSuffix(u.Path, "/l/") {
		return target
	}
	return href
}
