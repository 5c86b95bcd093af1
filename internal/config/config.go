package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo" mapstructure:"duckduckgo"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	TTLHours      int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	MaxConns      int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns      int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ExtractConfig configures page extraction.
type ExtractConfig struct {
	TextBudget          int    `yaml:"text_budget" mapstructure:"text_budget"`
	TimeoutSecs         int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ScriptedTimeoutSecs int    `yaml:"scripted_timeout_secs" mapstructure:"scripted_timeout_secs"`
	UserAgent           string `yaml:"user_agent" mapstructure:"user_agent"`
	PatternsFile        string `yaml:"patterns_file" mapstructure:"patterns_file"`
	MaxBodyBytes        int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// LLMConfig selects the completion provider and its shared settings.
type LLMConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryAttempts int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelayMs  int     `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SearchConfig configures the web search chain.
type SearchConfig struct {
	Providers   []string `yaml:"providers" mapstructure:"providers"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxResults  int      `yaml:"max_results" mapstructure:"max_results"`
}

// GoogleConfig holds Google Custom Search settings.
type GoogleConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	EngineID string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// DuckDuckGoConfig holds DuckDuckGo HTML search settings.
type DuckDuckGoConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ResilienceConfig tunes circuit breakers for remote collaborators.
type ResilienceConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.sqlite_path", "company-analyzer.db")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_prefix", "company-analyzer:")
	v.SetDefault("cache.ttl_hours", 0)
	v.SetDefault("cache.max_conns", 10)
	v.SetDefault("cache.min_conns", 2)
	v.SetDefault("extract.text_budget", 8000)
	v.SetDefault("extract.timeout_secs", 10)
	v.SetDefault("extract.scripted_timeout_secs", 20)
	v.SetDefault("extract.max_body_bytes", 2<<20)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.retry_attempts", 3)
	v.SetDefault("llm.retry_delay_ms", 500)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("search.providers", []string{"duckduckgo", "jina"})
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.max_results", 5)
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("duckduckgo.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.cooldown_secs", 30)

	// Keys without a default must still be known to viper for env lookup.
	for _, key := range []string{
		"cache.database_url", "cache.redis_password", "cache.redis_db",
		"extract.user_agent", "extract.patterns_file",
		"jina.key", "anthropic.key", "openai.key", "openai.base_url",
		"gemini.key", "gemini.base_url", "google.key", "google.engine_id",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
