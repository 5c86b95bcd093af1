package extract

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
)

// DefaultUserAgent is sent by the static extractor.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticConfig configures a StaticExtractor.
type StaticConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	TextBudget   int
	Retry        resilience.Policy
}

// StaticExtractor fetches server-rendered HTML over plain HTTP and parses
// it in process.
type StaticExtractor struct {
	cfg    StaticConfig
	client *http.Client
	now    func() time.Time
}

// NewStaticExtractor creates a StaticExtractor, filling zero config values
// with defaults.
func NewStaticExtractor(cfg StaticConfig) *StaticExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	if cfg.TextBudget <= 0 {
		cfg.TextBudget = DefaultTextBudget
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = resilience.Policy{Attempts: 2, BaseDelay: 500 * time.Millisecond}
	}
	return &StaticExtractor{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
				TLSHandshakeTimeout: cfg.Timeout,
			},
		},
		now: time.Now,
	}
}

func (s *StaticExtractor) Kind() model.ExtractorKind { return model.ExtractorStatic }

type fetched struct {
	finalURL string
	body     []byte
}

// Extract fetches rawURL and returns its cleaned text and metadata.
func (s *StaticExtractor) Extract(ctx context.Context, rawURL string) (*model.ExtractionResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	policy := s.cfg.Retry
	policy.OnRetry = resilience.LogRetries("static", "fetch")
	page, err := resilience.Retry(ctx, policy, func(ctx context.Context) (*fetched, error) {
		return s.fetch(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.body))
	if err != nil {
		return nil, eris.Wrapf(err, "extract: parse html %s", rawURL)
	}

	res := &model.ExtractionResult{
		SourceURL:       page.finalURL,
		Title:           strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription: metaContent(doc, "description"),
		MetaKeywords:    metaContent(doc, "keywords"),
		ExtractorUsed:   model.ExtractorStatic,
		FetchedAt:       s.now().UTC(),
	}
	if res.Title == "" || res.MetaDescription == "" {
		fillFromOpenGraph(page.body, res)
	}

	doc.Find("script, style, noscript, template").Remove()
	var b strings.Builder
	collectText(doc.Find("body"), &b)
	if b.Len() == 0 {
		collectText(doc.Selection, &b)
	}

	res.CleanedText = Truncate(CleanText(b.String()), s.cfg.TextBudget)
	if isCaptchaChallenge(page.body, res.CleanedText) {
		return nil, failure(ReasonBlocked, rawURL, eris.New("captcha interstitial"))
	}
	if res.CleanedText == "" {
		return nil, failure(ReasonEmptyContent, rawURL, nil)
	}
	return res, nil
}

func (s *StaticExtractor) fetch(ctx context.Context, rawURL string) (*fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidURL, "%q: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		terr := classifyTransport(rawURL, err)
		if resilience.IsTransient(err) && ctx.Err() == nil {
			return nil, resilience.Transient(terr, 0)
		}
		return nil, terr
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, classifyTransport(rawURL, eris.Wrap(err, "read body"))
	}

	if kind := detectBlock(resp, raw); kind != blockNone {
		return nil, failure(ReasonBlocked, rawURL, eris.Errorf("%s interstitial (status %d)", kind, resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		ferr := classifyStatus(rawURL, resp.StatusCode, eris.Errorf("status %d", resp.StatusCode))
		if resilience.TransientStatus(resp.StatusCode) && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Transient(ferr, resp.StatusCode)
		}
		return nil, ferr
	}

	body, err := decodeCharset(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		zap.L().Debug("extract: charset fallback", zap.String("url", rawURL), zap.Error(err))
		body = raw
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &fetched{finalURL: final, body: body}, nil
}

// decodeCharset converts body to UTF-8 using the charset declared in the
// Content-Type header.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "unsupported charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, eris.Wrapf(err, "decode %s", charset)
	}
	return out, nil
}

func metaContent(doc *goquery.Document, name string) string {
	var out string
	doc.Find("meta").EachWithBreak(func(_ int, m *goquery.Selection) bool {
		if n, _ := m.Attr("name"); strings.EqualFold(n, name) {
			out, _ = m.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(out)
}

func fillFromOpenGraph(body []byte, res *model.ExtractionResult) {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err != nil {
		return
	}
	if res.Title == "" {
		res.Title = strings.TrimSpace(og.Title)
	}
	if res.MetaDescription == "" {
		res.MetaDescription = strings.TrimSpace(og.Description)
	}
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "nav": true,
	"table": true, "tr": true, "td": true, "th": true, "main": true, "aside": true,
	"blockquote": true, "pre": true, "form": true, "address": true,
}

// collectText writes the text of sel, breaking lines at block elements.
func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch name := goquery.NodeName(c); name {
		case "#text":
			b.WriteString(c.Text())
		case "#comment":
		default:
			if blockTags[name] {
				b.WriteByte('\n')
			}
			collectText(c, b)
			if blockTags[name] {
				b.WriteByte('\n')
			}
		}
	})
}
