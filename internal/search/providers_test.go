package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/resilience"
)

const ddgPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example/">Sponsored</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.com%2Fabout&rut=x">Acme | About us</a></h2>
  <a class="result__snippet">Acme is headquartered in Columbus, Ohio.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://news.example/acme">Acme raises Series B</a></h2>
  <a class="result__snippet">The company now employs 250 people.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://third.example">Third</a></h2>
</div>
</body></html>`

func TestDuckDuckGoSearcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme headquarters", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(ddgPage)) //nolint:errcheck
	}))
	defer srv.Close()

	s := NewDuckDuckGoSearcher(DuckDuckGoConfig{BaseURL: srv.URL + "/html/", MaxResults: 2})
	results, err := s.Search(context.Background(), "acme headquarters")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Acme | About us", results[0].Title)
	assert.Equal(t, "https://acme.com/about", results[0].URL)
	assert.Equal(t, "Acme is headquartered in Columbus, Ohio.", results[0].Snippet)
	assert.Equal(t, "https://news.example/acme", results[1].URL)
}

func TestDuckDuckGoSearcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewDuckDuckGoSearcher(DuckDuckGoConfig{BaseURL: srv.URL}).Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestDuckDuckGoSearcher_PermanentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewDuckDuckGoSearcher(DuckDuckGoConfig{BaseURL: srv.URL}).Search(context.Background(), "q")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Equal(t, "search: duckduckgo: status 403", eris.Unpack(err).ErrRoot.Msg)
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t, "https://acme.com/", resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.com%2F"))
	assert.Equal(t, "https://acme.com/x", resolveRedirect("https://acme.com/x"))
}

func TestGoogleSearcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "g-key", q.Get("key"))
		assert.Equal(t, "engine-1", q.Get("cx"))
		assert.Equal(t, "acme ceo", q.Get("q"))
		assert.Equal(t, "10", q.Get("num"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"title":"Acme leadership","link":"https://acme.com/team","snippet":"Jane Doe, CEO"},
			{"title":"Acme","link":"https://acme.com","snippet":"Home"}
		]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	s := NewGoogleSearcher(GoogleConfig{APIKey: "g-key", EngineID: "engine-1", BaseURL: srv.URL, MaxResults: 25})
	results, err := s.Search(context.Background(), "acme ceo")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://acme.com/team", results[0].URL)
	assert.Equal(t, "Jane Doe, CEO", results[0].Snippet)
}

func TestGoogleSearcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	s := NewGoogleSearcher(GoogleConfig{APIKey: "k", EngineID: "e", BaseURL: srv.URL})

	_, err := s.Search(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Equal(t, "search: google: status 403", eris.Unpack(err).ErrRoot.Msg)

	_, err = s.Search(context.Background(), "ok")
	assert.ErrorContains(t, err, "unmarshal")
}
