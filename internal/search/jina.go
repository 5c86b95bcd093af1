package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/pkg/jina"
)

// JinaSearcher searches through the Jina search API.
type JinaSearcher struct {
	client     jina.Client
	maxResults int
}

// NewJinaSearcher creates a JinaSearcher.
func NewJinaSearcher(client jina.Client, maxResults int) *JinaSearcher {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &JinaSearcher{client: client, maxResults: maxResults}
}

// Name implements Searcher.
func (j *JinaSearcher) Name() string { return "jina" }

// Search implements Searcher.
func (j *JinaSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	resp, err := j.client.Search(ctx, query, jina.WithResultCount(j.maxResults))
	if err != nil {
		return nil, eris.Wrap(err, "search: jina")
	}

	results := make([]model.SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		snippet := d.Description
		if snippet == "" {
			snippet = d.Content
		}
		results = append(results, model.SearchResult{
			Title:   d.Title,
			Snippet: truncateSnippet(snippet),
			URL:     d.URL,
		})
	}
	return limit(results, j.maxResults), nil
}

// maxSnippet bounds a snippet taken from full page content.
const maxSnippet = 500

func truncateSnippet(s string) string {
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet])
}
