package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/model"
)

func TestSelector_Select(t *testing.T) {
	s := DefaultSelector()

	tests := []struct {
		url  string
		want model.ExtractorKind
	}{
		{"https://acme.com", model.ExtractorStatic},
		{"https://acme.com/about", model.ExtractorStatic},
		{"https://react-shop.io", model.ExtractorScripted},
		{"https://store.myshopify.com/products", model.ExtractorScripted},
		{"https://acme.com/blog/built-with-Next.js", model.ExtractorScripted},
		{"https://NUXT-demo.dev", model.ExtractorScripted},
		{"https://example.com/magento/catalog", model.ExtractorScripted},
		{"https://nextjs.org", model.ExtractorStatic},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := s.Select(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelector_Deterministic(t *testing.T) {
	s := DefaultSelector()
	first, err := s.Select("https://vue-storefront.example.com")
	require.NoError(t, err)
	for range 20 {
		got, err := s.Select("https://vue-storefront.example.com")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestSelector_Explain(t *testing.T) {
	kind, group, err := DefaultSelector().Explain("https://shop.bigcommerce.com")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorScripted, kind)
	assert.Equal(t, "ecommerce_platforms", group)

	kind, group, err = DefaultSelector().Explain("https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorStatic, kind)
	assert.Empty(t, group)
}

func TestSelector_InvalidURL(t *testing.T) {
	s := DefaultSelector()
	for _, in := range []string{"", "acme.com", "ftp://react.io", "https://", "http://%zz"} {
		_, err := s.Select(in)
		assert.ErrorIs(t, err, ErrInvalidURL, in)
	}
}

func TestLoadPatterns_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scripted:\n  - name: custom\n    patterns: [webflow]\n"), 0o600))

	s, err := LoadPatterns(path)
	require.NoError(t, err)

	kind, err := s.Select("https://acme.webflow.io")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorScripted, kind)

	kind, err = s.Select("https://react.dev")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorStatic, kind)
}

func TestLoadPatterns_Errors(t *testing.T) {
	_, err := LoadPatterns(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParsePatterns([]byte("scripted:\n  - name: bad\n    patterns: ['(']\n"))
	assert.Error(t, err)

	_, err = ParsePatterns([]byte("scripted: [[["))
	assert.Error(t, err)

	s, err := LoadPatterns("")
	require.NoError(t, err)
	assert.NotEmpty(t, s.scripted)
}
