// Package search provides web search providers and an ordered fallback chain.
package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
)

// DefaultMaxResults caps the results a provider returns.
const DefaultMaxResults = 5

// ErrSearchFailed is returned when every provider in a chain failed.
var ErrSearchFailed = eris.New("search: all providers failed")

// Searcher runs a web search and returns results in provider rank order.
// An empty slice with a nil error means the provider found nothing.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
	Name() string
}

// Chain tries searchers in order. The first non-empty result wins; each
// searcher runs behind its own circuit breaker.
type Chain struct {
	searchers []Searcher
	breakers  *resilience.Breakers
}

// NewChain creates a Chain. A nil breakers registry disables circuit breaking.
func NewChain(breakers *resilience.Breakers, searchers ...Searcher) *Chain {
	return &Chain{searchers: searchers, breakers: breakers}
}

// Name implements Searcher.
func (c *Chain) Name() string {
	names := make([]string, len(c.searchers))
	for i, s := range c.searchers {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Search implements Searcher. It returns ErrSearchFailed only when no
// searcher answered; if at least one answered with nothing, the result is
// empty and the error nil.
func (c *Chain) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	var (
		lastErr  error
		answered bool
	)
	for _, s := range c.searchers {
		var breaker *resilience.Breaker
		if c.breakers != nil {
			breaker = c.breakers.For("search:" + s.Name())
		}
		results, err := resilience.Guard(ctx, breaker, func(ctx context.Context) ([]model.SearchResult, error) {
			return s.Search(ctx, query)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("search: provider failed, trying next",
				zap.String("provider", s.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		answered = true
		if results = dedupe(results); len(results) > 0 {
			return results, nil
		}
		zap.L().Debug("search: provider returned no results",
			zap.String("provider", s.Name()),
			zap.String("query", query),
		)
	}
	if answered {
		return []model.SearchResult{}, nil
	}
	if lastErr != nil {
		return nil, eris.Wrapf(ErrSearchFailed, "search: last error: %v", lastErr)
	}
	return nil, eris.Wrap(ErrSearchFailed, "search: no providers configured")
}

// dedupe drops results without a URL and repeats of an earlier URL.
func dedupe(results []model.SearchResult) []model.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		u := strings.TrimSpace(r.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		r.URL = u
		r.Title = strings.TrimSpace(r.Title)
		r.Snippet = strings.TrimSpace(r.Snippet)
		out = append(out, r)
	}
	return out
}

func limit(results []model.SearchResult, n int) []model.SearchResult {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
