// Package analyzer orchestrates website analysis and question answering on
// top of extraction, completion, search and the cache.
package analyzer

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/cache"
	"github.com/sells-group/company-analyzer/internal/extract"
	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/monitoring"
)

// Selector picks the extraction backend for a URL without fetching it.
type Selector interface {
	Select(rawURL string) (model.ExtractorKind, error)
}

// Extractor fetches and normalizes a page with the given backend.
type Extractor interface {
	Extract(ctx context.Context, rawURL string, kind model.ExtractorKind) (*model.ExtractionResult, error)
}

// Analyzer turns a website into BusinessDetails, at most once per
// normalized URL.
type Analyzer struct {
	cache     *cache.Cache
	selector  Selector
	extractor Extractor
	completer llm.Completer
	metrics   *monitoring.Metrics
}

// NewAnalyzer creates an Analyzer. metrics may be nil.
func NewAnalyzer(c *cache.Cache, selector Selector, extractor Extractor, completer llm.Completer, metrics *monitoring.Metrics) *Analyzer {
	return &Analyzer{
		cache:     c,
		selector:  selector,
		extractor: extractor,
		completer: completer,
		metrics:   metrics,
	}
}

// Analyze returns the profile of the company at rawURL, from the cache when
// present. A computed profile is cached only after it passed validation.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*model.BusinessDetails, error) {
	details, err := a.analyze(ctx, rawURL)
	if err != nil {
		a.metrics.Failure("analyze", string(KindOf(err)))
		return nil, err
	}
	return details, nil
}

func (a *Analyzer) analyze(ctx context.Context, rawURL string) (*model.BusinessDetails, error) {
	key, err := cache.CompanyKey(rawURL)
	if err != nil {
		return nil, fail("analyze", KindInvalidURL, err)
	}

	details, fromCache, err := cache.LoadOrCompute(ctx, a.cache, key, func(ctx context.Context) (model.BusinessDetails, bool, error) {
		d, err := a.compute(ctx, rawURL, key)
		return d, true, err
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		zap.L().Debug("analyzer: profile served from cache", zap.String("key", key))
	}
	return &details, nil
}

func (a *Analyzer) compute(ctx context.Context, rawURL, key string) (model.BusinessDetails, error) {
	var zero model.BusinessDetails
	log := zap.L().With(zap.String("url", key))

	kind, err := a.selector.Select(rawURL)
	if err != nil {
		return zero, fail("analyze", KindInvalidURL, err)
	}

	start := time.Now()
	page, err := a.extractor.Extract(ctx, rawURL, kind)
	if err != nil {
		a.metrics.Extraction(string(kind), "error", time.Since(start))
		return zero, extractionFailure(err)
	}
	a.metrics.Extraction(string(kind), "ok", time.Since(start))
	log.Info("analyzer: page extracted",
		zap.String("extractor", string(kind)),
		zap.Int("text_len", len(page.CleanedText)),
		zap.Duration("elapsed", time.Since(start)),
	)

	start = time.Now()
	reply, err := a.completer.Complete(ctx, llm.Request{
		System: analysisSystem,
		Prompt: analysisPrompt(key, page),
		Op:     "analyze",
	})
	a.metrics.Completion(a.completer.Name(), "analyze", time.Since(start))
	if err != nil {
		return zero, fail("analyze", KindLLMError, err)
	}

	details, err := parseStrict[model.BusinessDetails](reply, businessDetailsSchema)
	if err != nil {
		log.Warn("analyzer: rejected analysis reply", zap.Error(err))
		return zero, fail("analyze", KindSchemaValidationFailed, err)
	}
	if details.WebsiteURL == "" {
		details.WebsiteURL = key
	}
	return details, nil
}

func extractionFailure(err error) error {
	if errors.Is(err, extract.ErrInvalidURL) {
		return fail("analyze", KindInvalidURL, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	e := fail("analyze", KindExtractionFailed, err)
	var xe *extract.Error
	if errors.As(err, &xe) {
		e.Reason = string(xe.Reason)
	} else {
		e.Err = eris.Wrap(err, "analyzer: extract")
	}
	return e
}
