package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Modes accepted by Validate.
const (
	ModeServe    = "serve"
	ModeAnalyze  = "analyze"
	ModeQuestion = "question"
	ModeAsk      = "ask"
	ModeCache    = "cache"
)

var (
	cacheDrivers    = []string{"sqlite", "postgres", "redis"}
	llmProviders    = []string{"anthropic", "openai", "gemini"}
	searchProviders = []string{"duckduckgo", "jina", "google"}
)

// Validate checks that the settings a command needs are present and in
// range. All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	needCache, needLLM, needSearch := false, false, false
	switch mode {
	case ModeServe:
		needCache, needLLM, needSearch = true, true, true
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
		if c.Server.RequestTimeoutSecs < 0 {
			add("server.request_timeout_secs must be >= 0")
		}
	case ModeAnalyze:
		needCache, needLLM = true, true
	case ModeQuestion:
		needCache, needLLM, needSearch = true, true, true
	case ModeAsk:
		needLLM = true
	case ModeCache:
		needCache = true
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needCache {
		c.validateCache(add)
	}
	if needLLM {
		c.validateLLM(add)
	}
	if needSearch {
		c.validateSearch(add)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCache(add func(string, ...any)) {
	switch strings.ToLower(c.Cache.Driver) {
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			add("cache.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			add("cache.database_url is required for the postgres driver")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			add("cache.redis_addr is required for the redis driver")
		}
	default:
		add("cache.driver must be one of %s", strings.Join(cacheDrivers, ", "))
	}
	if c.Cache.TTLHours < 0 {
		add("cache.ttl_hours must be >= 0")
	}
}

func (c *Config) validateLLM(add func(string, ...any)) {
	switch strings.ToLower(c.LLM.Provider) {
	case "anthropic":
		if c.Anthropic.Key == "" {
			add("anthropic.key is required")
		}
	case "openai":
		if c.OpenAI.Key == "" {
			add("openai.key is required")
		}
	case "gemini":
		if c.Gemini.Key == "" {
			add("gemini.key is required")
		}
	default:
		add("llm.provider must be one of %s", strings.Join(llmProviders, ", "))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		add("llm.temperature must be between 0 and 1")
	}
	if c.LLM.MaxTokens < 0 {
		add("llm.max_tokens must be >= 0")
	}
}

func (c *Config) validateSearch(add func(string, ...any)) {
	for _, p := range c.Search.Providers {
		p = strings.ToLower(p)
		if !slices.Contains(searchProviders, p) {
			add("search.providers: unknown provider %q", p)
			continue
		}
		if p == "google" && (c.Google.Key == "" || c.Google.EngineID == "") {
			add("google.key and google.engine_id are required for the google provider")
		}
	}
	if c.Search.MaxResults < 0 || c.Search.MaxResults > 10 {
		add("search.max_results must be between 0 and 10")
	}
}
