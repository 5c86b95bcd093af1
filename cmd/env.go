package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/analyzer"
	"github.com/sells-group/company-analyzer/internal/cache"
	"github.com/sells-group/company-analyzer/internal/extract"
	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/monitoring"
	"github.com/sells-group/company-analyzer/internal/resilience"
	"github.com/sells-group/company-analyzer/internal/search"
	"github.com/sells-group/company-analyzer/internal/store"
	"github.com/sells-group/company-analyzer/pkg/jina"
)

// analyzerEnv holds the initialized store, collaborators and services
// needed by the serve, analyze, question and ask commands.
type analyzerEnv struct {
	Store    store.Store
	Cache    *cache.Cache
	Metrics  *monitoring.Metrics
	Breakers *resilience.Breakers
	Analyzer *analyzer.Analyzer
	Answerer *analyzer.Answerer
	Asker    *analyzer.Asker
}

// Close releases resources held by the environment.
func (e *analyzerEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// envNeeds selects which parts of the environment a command builds.
type envNeeds struct {
	cache  bool
	llm    bool
	search bool
}

// initEnv validates config for mode and builds what the command needs.
// Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, needs envNeeds) (*analyzerEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	metrics := monitoring.New()
	breakerCfg := resilience.BreakerConfigFrom(cfg.Resilience.FailureThreshold, cfg.Resilience.CooldownSecs)
	breakerCfg.OnChange = metrics.BreakerChange
	env := &analyzerEnv{
		Metrics:  metrics,
		Breakers: resilience.NewBreakers(breakerCfg),
	}

	var completer llm.Completer
	if needs.llm {
		c, err := initCompleter(ctx, env.Breakers)
		if err != nil {
			return nil, err
		}
		completer = c
		env.Asker = analyzer.NewAsker(completer, metrics)
	}

	if !needs.cache {
		return env, nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	env.Store = st
	env.Cache = cache.New(st, cache.Options{
		TTL:      time.Duration(cfg.Cache.TTLHours) * time.Hour,
		OnLookup: metrics.CacheLookup,
	})

	if completer == nil {
		return env, nil
	}

	selector, err := initSelector()
	if err != nil {
		env.Close()
		return nil, err
	}
	jinaClient := initJina()
	extractors := initExtractors(jinaClient, breakerCfg)
	env.Analyzer = analyzer.NewAnalyzer(env.Cache, selector, extractors, completer, metrics)

	var searcher search.Searcher
	if needs.search {
		searcher = initSearch(jinaClient, env.Breakers)
	}
	env.Answerer = analyzer.NewAnswerer(env.Cache, env.Analyzer, searcher, completer, metrics)

	return env, nil
}

func initExtractors(jinaClient jina.Client, breakerCfg resilience.BreakerConfig) *extract.Registry {
	return extract.NewRegistry(
		extract.NewStaticExtractor(extract.StaticConfig{
			Timeout:      time.Duration(cfg.Extract.TimeoutSecs) * time.Second,
			UserAgent:    cfg.Extract.UserAgent,
			MaxBodyBytes: cfg.Extract.MaxBodyBytes,
			TextBudget:   cfg.Extract.TextBudget,
		}),
		extract.NewScriptedExtractor(jinaClient, transientBreaker("extract:scripted", breakerCfg), extract.ScriptedConfig{
			PageTimeout: time.Duration(cfg.Extract.ScriptedTimeoutSecs) * time.Second,
			TextBudget:  cfg.Extract.TextBudget,
		}),
	)
}

// transientBreaker is a breaker that ignores failures caused by the page
// itself, such as a 404, and trips only on upstream trouble.
func transientBreaker(name string, base resilience.BreakerConfig) *resilience.Breaker {
	base.Trips = resilience.IsTransient
	return resilience.NewBreaker(name, base)
}

func initStore(ctx context.Context) (store.Store, error) {
	switch strings.ToLower(cfg.Cache.Driver) {
	case "sqlite":
		return store.NewSQLite(cfg.Cache.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Cache.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Cache.MaxConns,
			MinConns: cfg.Cache.MinConns,
		})
	case "redis":
		return store.NewRedis(store.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.RedisPrefix,
		}), nil
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

func initSelector() (*extract.Selector, error) {
	if cfg.Extract.PatternsFile == "" {
		return extract.DefaultSelector(), nil
	}
	sel, err := extract.LoadPatterns(cfg.Extract.PatternsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load extractor patterns")
	}
	zap.L().Info("extractor patterns loaded", zap.String("file", cfg.Extract.PatternsFile))
	return sel, nil
}

func initJina() jina.Client {
	opts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	return jina.NewClient(cfg.Jina.Key, opts...)
}

func initCompleter(ctx context.Context, breakers *resilience.Breakers) (llm.Completer, error) {
	provider := strings.ToLower(cfg.LLM.Provider)
	llmCfg := llm.Config{
		Provider:    provider,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	switch provider {
	case llm.ProviderAnthropic:
		llmCfg.APIKey = cfg.Anthropic.Key
		llmCfg.Model = cfg.Anthropic.Model
	case llm.ProviderOpenAI:
		llmCfg.APIKey = cfg.OpenAI.Key
		llmCfg.Model = cfg.OpenAI.Model
		llmCfg.BaseURL = cfg.OpenAI.BaseURL
	case llm.ProviderGemini:
		llmCfg.APIKey = cfg.Gemini.Key
		llmCfg.Model = cfg.Gemini.Model
		llmCfg.BaseURL = cfg.Gemini.BaseURL
	}

	c, err := llm.New(ctx, llmCfg)
	if err != nil {
		return nil, err
	}
	zap.L().Info("completion provider ready",
		zap.String("provider", c.Name()),
		zap.String("model", llmCfg.Model),
	)

	policy := resilience.PolicyFrom(cfg.LLM.RetryAttempts, cfg.LLM.RetryDelayMs)
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	return llm.WithResilience(c, policy, breakers.For("llm:"+c.Name()), timeout), nil
}

func initSearch(jinaClient jina.Client, breakers *resilience.Breakers) search.Searcher {
	timeout := time.Duration(cfg.Search.TimeoutSecs) * time.Second
	var searchers []search.Searcher
	for _, name := range cfg.Search.Providers {
		switch strings.ToLower(name) {
		case "duckduckgo":
			searchers = append(searchers, search.NewDuckDuckGoSearcher(search.DuckDuckGoConfig{
				BaseURL:    cfg.DuckDuckGo.BaseURL,
				Timeout:    timeout,
				MaxResults: cfg.Search.MaxResults,
			}))
		case "jina":
			searchers = append(searchers, search.NewJinaSearcher(jinaClient, cfg.Search.MaxResults))
		case "google":
			searchers = append(searchers, search.NewGoogleSearcher(search.GoogleConfig{
				APIKey:     cfg.Google.Key,
				EngineID:   cfg.Google.EngineID,
				BaseURL:    cfg.Google.BaseURL,
				Timeout:    timeout,
				MaxResults: cfg.Search.MaxResults,
			}))
		}
	}
	chain := search.NewChain(breakers, searchers...)
	zap.L().Info("search providers ready", zap.String("chain", chain.Name()))
	return chain
}
