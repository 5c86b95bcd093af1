package analyzer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/cache"
	"github.com/sells-group/company-analyzer/internal/extract"
	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/store"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, rawURL string, kind model.ExtractorKind) (*model.ExtractionResult, error) {
	args := m.Called(ctx, rawURL, kind)
	res, _ := args.Get(0).(*model.ExtractionResult)
	return res, args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Name() string { return "stub" }

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Name() string { return "stub" }

func (m *mockSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).([]model.SearchResult)
	return res, args.Error(1)
}

// op matches completion requests by operation name.
func op(name string) any {
	return mock.MatchedBy(func(req llm.Request) bool { return req.Op == name })
}

const acmeDetails = `{
  "company_name": "Acme Inc",
  "industry": {"industry": "Software", "confidence_score": 0.9, "sub_industries": ["CRM"]},
  "company_size": {"size_category": "Small", "employee_range": "11-50", "confidence_score": 0.6},
  "location": {"headquarters": "Columbus, Ohio", "offices": [], "countries_of_operation": ["US"], "confidence_score": 0.8},
  "description": "Acme builds CRMs for small businesses.",
  "products_services": ["CRM"],
  "technologies": [],
  "founded_year": 2015
}`

const unknownDetails = `{
  "company_name": "Acme Inc",
  "industry": {"industry": "Unknown", "confidence_score": 0.1, "sub_industries": []},
  "company_size": {"size_category": "Unknown", "employee_range": "", "confidence_score": 0.1},
  "location": {"headquarters": "", "offices": [], "countries_of_operation": [], "confidence_score": 0.1},
  "description": "",
  "products_services": [],
  "technologies": [],
  "founded_year": null
}`

func acmePage() *model.ExtractionResult {
	return &model.ExtractionResult{
		SourceURL:     "https://acme.io",
		Title:         "Acme Inc",
		CleanedText:   "Acme builds CRMs for small businesses.",
		ExtractorUsed: model.ExtractorStatic,
	}
}

type fixture struct {
	cache     *cache.Cache
	store     *store.SQLiteStore
	extractor *mockExtractor
	completer *mockCompleter
	searcher  *mockSearcher
	analyzer  *Analyzer
	answerer  *Answerer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{
		cache:     cache.New(st, cache.Options{}),
		store:     st,
		extractor: new(mockExtractor),
		completer: new(mockCompleter),
		searcher:  new(mockSearcher),
	}
	f.analyzer = NewAnalyzer(f.cache, extract.DefaultSelector(), f.extractor, f.completer, nil)
	f.answerer = NewAnswerer(f.cache, f.analyzer, f.searcher, f.completer, nil)
	return f
}
