// Package llm turns prompts into JSON text through one of the supported
// completion providers.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/internal/resilience"
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// DefaultSystemPrompt frames every completion as JSON-producing.
const DefaultSystemPrompt = "You are a helpful assistant that provides information in JSON format."

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = eris.New("llm: empty response")

// Request is one prompt sent to a completion service.
type Request struct {
	// System overrides DefaultSystemPrompt when set.
	System string
	Prompt string
	// Temperature overrides the completer default when non-nil.
	Temperature *float64
	// MaxTokens overrides the completer default when positive.
	MaxTokens int
	// Op names the calling operation in logs.
	Op string
}

// Completer returns the model's text reply to a request. Implementations
// ask the provider for JSON output but do not validate it.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Config selects and tunes a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[string]string{
	ProviderAnthropic: "claude-haiku-4-5-20251001",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderGemini:    "gemini-2.5-flash",
}

// New builds the Completer for cfg.Provider.
func New(ctx context.Context, cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, eris.Errorf("llm: %s: api key is required", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModels[strings.ToLower(cfg.Provider)]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		return NewAnthropicCompleter(cfg), nil
	case ProviderOpenAI:
		return NewOpenAICompleter(cfg), nil
	case ProviderGemini:
		return NewGeminiCompleter(ctx, cfg)
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// settings resolves per-request overrides against the completer defaults.
func (cfg Config) settings(req Request) (system string, temperature float64, maxTokens int) {
	system = req.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	temperature = cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens = cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	return system, temperature, maxTokens
}

// statusError marks provider failures with a retryable HTTP status as
// transient.
func statusError(err error, code int) error {
	if resilience.TransientStatus(code) {
		return resilience.Transient(err, code)
	}
	return err
}

// Resilient wraps a Completer with retries, a circuit breaker and a
// per-attempt timeout.
type Resilient struct {
	next    Completer
	policy  resilience.Policy
	breaker *resilience.Breaker
	timeout time.Duration
}

// WithResilience wraps next. A nil breaker or zero timeout disables that
// layer.
func WithResilience(next Completer, policy resilience.Policy, breaker *resilience.Breaker, timeout time.Duration) *Resilient {
	return &Resilient{next: next, policy: policy, breaker: breaker, timeout: timeout}
}

// Name returns the wrapped provider name.
func (r *Resilient) Name() string { return r.next.Name() }

// Complete calls the wrapped provider, retrying transient failures.
func (r *Resilient) Complete(ctx context.Context, req Request) (string, error) {
	policy := r.policy
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.LogRetries(r.next.Name(), req.Op)
	}
	return resilience.Retry(ctx, policy, func(ctx context.Context) (string, error) {
		return resilience.Guard(ctx, r.breaker, func(ctx context.Context) (string, error) {
			parent := ctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			out, err := r.next.Complete(ctx, req)
			// A per-attempt timeout is retryable; the caller's own deadline is not.
			if err != nil && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
				return "", resilience.Transient(eris.Errorf("llm: %s: attempt timed out after %s", r.next.Name(), r.timeout), 0)
			}
			return out, err
		})
	})
}
