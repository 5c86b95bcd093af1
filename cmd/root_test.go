package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/cache"
	"github.com/sells-group/company-analyzer/internal/config"
	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/resilience"
	"github.com/sells-group/company-analyzer/internal/search"
	"github.com/sells-group/company-analyzer/internal/store"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "analyze", "question", "ask", "cache", "select", "extract"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "company-analyzer", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAskCommand_Flags(t *testing.T) {
	flag := askCmd.Flags().Lookup("temperature")
	require.NotNil(t, flag, "ask command should have --temperature flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestCacheCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["evict"])
	assert.True(t, names["key"])
	require.NotNil(t, cacheEvictCmd.Flags().Lookup("question"))
}

func TestEvictionKey(t *testing.T) {
	key, err := evictionKey("https://Acme.io/", "")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.io", key)

	qkey, err := evictionKey("https://acme.io", "Who founded it?")
	require.NoError(t, err)
	want, err := cache.QuestionKey("https://acme.io", "who founded   it?")
	require.NoError(t, err)
	assert.Equal(t, want, qkey)

	_, err = evictionKey("acme", "")
	assert.Error(t, err)
}

func TestSelectCommand(t *testing.T) {
	cfg = &config.Config{}

	var out bytes.Buffer
	selectCmd.SetOut(&out)
	require.NoError(t, selectCmd.RunE(selectCmd, []string{"https://shop.myshopify.com"}))
	assert.Contains(t, out.String(), "scripted")

	out.Reset()
	require.NoError(t, selectCmd.RunE(selectCmd, []string{"https://acme.io"}))
	assert.Equal(t, "static\n", out.String())

	assert.Error(t, selectCmd.RunE(selectCmd, []string{"ftp://acme.io"}))
}

func TestExtractorKind(t *testing.T) {
	cfg = &config.Config{}

	kind, err := extractorKind("https://acme.io", "scripted")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorScripted, kind)

	kind, err = extractorKind("https://shop.myshopify.com", "")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorScripted, kind)

	kind, err = extractorKind("https://acme.io", "")
	require.NoError(t, err)
	assert.Equal(t, model.ExtractorStatic, kind)

	_, err = extractorKind("https://acme.io", "browser")
	assert.Error(t, err)
}

func TestExtractCommand_ForcedKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Acme Inc</title></head><body><p>Acme builds CRMs.</p></body></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	cfg = &config.Config{}
	extractKind = "static"
	t.Cleanup(func() { extractKind = "" })

	var out bytes.Buffer
	extractCmd.SetOut(&out)
	extractCmd.SetContext(context.Background())
	require.NoError(t, extractCmd.RunE(extractCmd, []string{srv.URL}))
	assert.Contains(t, out.String(), `"title": "Acme Inc"`)
	assert.Contains(t, out.String(), `"extractor_used": "static"`)

	extractKind = "browser"
	assert.Error(t, extractCmd.RunE(extractCmd, []string{srv.URL}))
}

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{Cache: config.CacheConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "cache.db"),
	}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*store.SQLiteStore)
	assert.True(t, ok)
}

func TestInitStore_Redis(t *testing.T) {
	cfg = &config.Config{Cache: config.CacheConfig{Driver: "redis", RedisAddr: "localhost:6379"}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*store.RedisStore)
	assert.True(t, ok)
}

func TestInitStore_Unsupported(t *testing.T) {
	cfg = &config.Config{Cache: config.CacheConfig{Driver: "mysql"}}

	_, err := initStore(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported cache driver")
}

func TestInitCompleter(t *testing.T) {
	cfg = &config.Config{
		LLM:    config.LLMConfig{Provider: "OpenAI", RetryAttempts: 2},
		OpenAI: config.OpenAIConfig{Key: "sk-test", Model: "gpt-4o-mini"},
	}

	c, err := initCompleter(context.Background(), resilience.NewBreakers(resilience.DefaultBreakerConfig()))
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, c.Name())
	_, ok := c.(*llm.Resilient)
	assert.True(t, ok)

	cfg.OpenAI.Key = ""
	_, err = initCompleter(context.Background(), resilience.NewBreakers(resilience.DefaultBreakerConfig()))
	assert.Error(t, err)
}

func TestInitSearch_ChainOrder(t *testing.T) {
	cfg = &config.Config{
		Search: config.SearchConfig{Providers: []string{"google", "duckduckgo", "jina", "bing"}, MaxResults: 5},
		Google: config.GoogleConfig{Key: "k", EngineID: "cx"},
	}

	s := initSearch(initJina(), resilience.NewBreakers(resilience.DefaultBreakerConfig()))
	chain, ok := s.(*search.Chain)
	require.True(t, ok)
	assert.Equal(t, "chain(google,duckduckgo,jina)", chain.Name())
}

func TestInitEnv_AskOnlyNeedsLLM(t *testing.T) {
	cfg = &config.Config{
		LLM:       config.LLMConfig{Provider: "anthropic"},
		Anthropic: config.AnthropicConfig{Key: "sk-ant-test"},
	}

	env, err := initEnv(context.Background(), config.ModeAsk, envNeeds{llm: true})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Asker)
	assert.Nil(t, env.Store)
	assert.Nil(t, env.Analyzer)
}

func TestInitEnv_Question(t *testing.T) {
	cfg = &config.Config{
		Cache:  config.CacheConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "cache.db")},
		LLM:    config.LLMConfig{Provider: "openai"},
		OpenAI: config.OpenAIConfig{Key: "sk-test"},
		Search: config.SearchConfig{Providers: []string{"duckduckgo"}},
	}

	env, err := initEnv(context.Background(), config.ModeQuestion, envNeeds{cache: true, llm: true, search: true})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Cache)
	assert.NotNil(t, env.Analyzer)
	assert.NotNil(t, env.Answerer)
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	cfg = &config.Config{LLM: config.LLMConfig{Provider: "openai"}}

	_, err := initEnv(context.Background(), config.ModeAsk, envNeeds{llm: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key is required")
}
