package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/cache"
	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/monitoring"
	"github.com/sells-group/company-analyzer/internal/search"
)

// Answerer resolves questions about a company through cached answers,
// profile fields, web search and completion, in that order.
type Answerer struct {
	cache     *cache.Cache
	analyzer  *Analyzer
	searcher  search.Searcher
	completer llm.Completer
	metrics   *monitoring.Metrics
}

// NewAnswerer creates an Answerer. A nil searcher behaves like a search
// outage; metrics may be nil.
func NewAnswerer(c *cache.Cache, analyzer *Analyzer, searcher search.Searcher, completer llm.Completer, metrics *monitoring.Metrics) *Answerer {
	return &Answerer{
		cache:     c,
		analyzer:  analyzer,
		searcher:  searcher,
		completer: completer,
		metrics:   metrics,
	}
}

// Answer answers question about the company at rawURL.
func (a *Answerer) Answer(ctx context.Context, rawURL, question string) (*model.QuestionResponse, error) {
	resp, err := a.answer(ctx, rawURL, question)
	if err != nil {
		a.metrics.Failure("question", string(KindOf(err)))
		return nil, err
	}
	a.metrics.Answer(string(resp.Source))
	return resp, nil
}

func (a *Answerer) answer(ctx context.Context, rawURL, question string) (*model.QuestionResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fail("question", KindInvalidParameter, eris.New("question is empty"))
	}
	key, err := cache.QuestionKey(rawURL, question)
	if err != nil {
		return nil, fail("question", KindInvalidURL, err)
	}
	log := zap.L().With(zap.String("key", key))

	if cached, ok := cache.Load[model.QuestionResponse](ctx, a.cache, key); ok {
		cached.Source = model.SourceCachedAnswer
		return &cached, nil
	}

	details, err := a.analyzer.Analyze(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if resp, field, ok := matchField(question, details); ok {
		log.Debug("analyzer: answered from profile", zap.String("field", field))
		return resp, nil
	}

	resp, fromCache, err := cache.LoadOrCompute(ctx, a.cache, key, func(ctx context.Context) (model.QuestionResponse, bool, error) {
		return a.synthesize(ctx, question, details)
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		resp.Source = model.SourceCachedAnswer
	}
	return &resp, nil
}

// synthesize answers from web search results. When search fails the answer
// is produced without context and is not cacheable.
func (a *Answerer) synthesize(ctx context.Context, question string, details *model.BusinessDetails) (model.QuestionResponse, bool, error) {
	var zero model.QuestionResponse

	results, err := a.search(ctx, question, details.CompanyName)
	searched := err == nil
	if err != nil {
		if ctx.Err() != nil {
			return zero, false, ctx.Err()
		}
		zap.L().Warn("analyzer: search failed, answering without context",
			zap.String("question", question),
			zap.Error(err),
		)
		a.metrics.SearchDowngrade()
		results = nil
	}

	start := time.Now()
	reply, err := a.completer.Complete(ctx, llm.Request{
		Prompt: synthesisPrompt(question, details, results),
		Op:     "question",
	})
	a.metrics.Completion(a.completer.Name(), "question", time.Since(start))
	if err != nil {
		return zero, false, fail("question", KindLLMError, err)
	}

	s, err := parseStrict[synthesis](reply, answerSchema)
	if err != nil {
		return zero, false, fail("question", KindSchemaValidationFailed, err)
	}
	return model.QuestionResponse{
		Answer:          s.Answer,
		ConfidenceScore: s.ConfidenceScore,
		Source:          model.SourceWebSearch,
	}, searched, nil
}

// search runs the query for question, retrying once with a reformulated
// query when the first attempt finds nothing. Every outcome without results
// is a KindSearchFailed error.
func (a *Answerer) search(ctx context.Context, question, company string) ([]model.SearchResult, error) {
	if a.searcher == nil {
		return nil, fail("search", KindSearchFailed, eris.New("no search provider configured"))
	}
	query := search.BuildQuery(question, company)
	if query == "" {
		return nil, fail("search", KindSearchFailed, eris.New("query is empty after sanitizing"))
	}

	results, err := a.searcher.Search(ctx, query)
	if err != nil {
		return nil, fail("search", KindSearchFailed, err)
	}
	if len(results) > 0 {
		return results, nil
	}

	retry, ok := search.Reformulate(question, company)
	if !ok {
		return nil, fail("search", KindSearchFailed, eris.Errorf("no results for %q", query))
	}
	zap.L().Debug("analyzer: retrying search with reformulated query",
		zap.String("query", query),
		zap.String("retry", retry),
	)
	results, err = a.searcher.Search(ctx, retry)
	if err != nil {
		return nil, fail("search", KindSearchFailed, err)
	}
	if len(results) == 0 {
		return nil, fail("search", KindSearchFailed, eris.Errorf("no results for %q or %q", query, retry))
	}
	return results, nil
}
