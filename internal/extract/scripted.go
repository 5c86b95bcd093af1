package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
	"github.com/sells-group/company-analyzer/pkg/jina"
)

// ScriptedConfig configures a ScriptedExtractor.
type ScriptedConfig struct {
	// PageTimeout bounds how long the remote browser waits for the page.
	PageTimeout time.Duration
	TextBudget  int
	Retry       resilience.Policy
}

// ScriptedExtractor renders pages in a remote headless browser through the
// Jina reader before reading their text.
type ScriptedExtractor struct {
	reader  jina.Client
	cfg     ScriptedConfig
	breaker *resilience.Breaker
	now     func() time.Time
}

// NewScriptedExtractor creates a ScriptedExtractor. breaker may be nil.
func NewScriptedExtractor(reader jina.Client, breaker *resilience.Breaker, cfg ScriptedConfig) *ScriptedExtractor {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 20 * time.Second
	}
	if cfg.TextBudget <= 0 {
		cfg.TextBudget = DefaultTextBudget
	}
	return &ScriptedExtractor{reader: reader, cfg: cfg, breaker: breaker, now: time.Now}
}

func (s *ScriptedExtractor) Kind() model.ExtractorKind { return model.ExtractorScripted }

// Extract renders rawURL and returns its cleaned text and metadata.
func (s *ScriptedExtractor) Extract(ctx context.Context, rawURL string) (*model.ExtractionResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	policy := s.cfg.Retry
	policy.OnRetry = resilience.LogRetries("jina", "read")
	resp, err := resilience.Retry(ctx, policy, func(ctx context.Context) (*jina.ReadResponse, error) {
		return resilience.Guard(ctx, s.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
			r, err := s.reader.Read(ctx, rawURL,
				jina.WithEngine("browser"),
				jina.WithReturnFormat("text"),
				jina.WithPageTimeout(s.cfg.PageTimeout),
			)
			return r, s.classify(ctx, rawURL, err)
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			return nil, failure(ReasonBlocked, rawURL, err)
		}
		return nil, err
	}

	res := &model.ExtractionResult{
		SourceURL:       rawURL,
		Title:           strings.TrimSpace(resp.Data.Title),
		MetaDescription: strings.TrimSpace(resp.Data.Description),
		ExtractorUsed:   model.ExtractorScripted,
		FetchedAt:       s.now().UTC(),
	}
	if resp.Data.URL != "" {
		res.SourceURL = resp.Data.URL
	}
	res.CleanedText = Truncate(CleanText(resp.Data.Content), s.cfg.TextBudget)
	if res.CleanedText == "" {
		return nil, failure(ReasonEmptyContent, rawURL, nil)
	}
	return res, nil
}

func (s *ScriptedExtractor) classify(ctx context.Context, rawURL string, err error) error {
	if err == nil {
		return nil
	}
	var se *jina.StatusError
	if errors.As(err, &se) {
		ferr := classifyStatus(rawURL, se.StatusCode, err)
		if resilience.TransientStatus(se.StatusCode) {
			return resilience.Transient(ferr, se.StatusCode)
		}
		return ferr
	}
	terr := classifyTransport(rawURL, err)
	if resilience.IsTransient(err) && ctx.Err() == nil {
		return resilience.Transient(terr, 0)
	}
	return terr
}
