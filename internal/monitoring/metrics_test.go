package monitoring

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/resilience"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CacheLookup("company", "hit")
	m.CacheLookup("company", "hit")
	m.CacheLookup("question", "miss")
	m.Answer("CompanyData")
	m.Failure("analyze", "ExtractionFailed")
	m.SearchDowngrade()

	assert.Equal(t, 2.0, value(t, m.cacheLookups.WithLabelValues("company", "hit")))
	assert.Equal(t, 1.0, value(t, m.cacheLookups.WithLabelValues("question", "miss")))
	assert.Equal(t, 1.0, value(t, m.answers.WithLabelValues("CompanyData")))
	assert.Equal(t, 1.0, value(t, m.failures.WithLabelValues("analyze", "ExtractionFailed")))
	assert.Equal(t, 1.0, value(t, m.searchDowngrades))
}

func TestMetrics_BreakerChange(t *testing.T) {
	m := New()
	b := resilience.NewBreaker("jina", resilience.BreakerConfig{Threshold: 1, Cooldown: time.Hour, OnChange: m.BreakerChange})

	_ = b.Do(t.Context(), func(ctx context.Context) error { return assert.AnError })

	assert.Equal(t, float64(resilience.Open), value(t, m.breakerState.WithLabelValues("jina")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Extraction("static", "ok", 150*time.Millisecond)
	m.Completion("openai", "analyze", 2*time.Second)
	m.HTTPRequest("/analyze", "200", 3*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "company_analyzer_extraction_duration_seconds_bucket")
	assert.Contains(t, string(body), `company_analyzer_http_requests_total{code="200",route="/analyze"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheLookup("company", "hit")
		m.Answer("WebSearch")
		m.Failure("ask", "LLMError")
		m.Extraction("static", "ok", time.Second)
		m.Completion("gemini", "ask", time.Second)
		m.SearchDowngrade()
		m.HTTPRequest("/health", "200", time.Millisecond)
		m.BreakerChange("x", resilience.Closed, resilience.Open)
	})
	assert.Nil(t, m.Registry())
}
