package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-analyzer/internal/resilience"
)

type fakeCompleter struct {
	calls atomic.Int32
	fn    func(ctx context.Context, n int32) (string, error)
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, _ Request) (string, error) {
	return f.fn(ctx, f.calls.Add(1))
}

func fastPolicy() resilience.Policy {
	return resilience.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, c.Name())
	assert.Equal(t, DefaultModels[ProviderAnthropic], c.(*AnthropicCompleter).cfg.Model)

	c, err = New(ctx, Config{Provider: "openai", APIKey: "k", Model: "gpt-4.1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", c.(*OpenAICompleter).cfg.Model)
	assert.Equal(t, 1024, c.(*OpenAICompleter).cfg.MaxTokens)

	_, err = New(ctx, Config{Provider: "mistral", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown provider")

	_, err = New(ctx, Config{Provider: "openai"})
	assert.ErrorContains(t, err, "api key is required")
}

func TestSettings(t *testing.T) {
	cfg := Config{Temperature: 0.1, MaxTokens: 500}

	system, temp, maxTokens := cfg.settings(Request{})
	assert.Equal(t, DefaultSystemPrompt, system)
	assert.InDelta(t, 0.1, temp, 1e-9)
	assert.Equal(t, 500, maxTokens)

	zero := 0.0
	system, temp, maxTokens = cfg.settings(Request{System: "be terse", Temperature: &zero, MaxTokens: 20})
	assert.Equal(t, "be terse", system)
	assert.Zero(t, temp)
	assert.Equal(t, 20, maxTokens)
}

func TestResilient_RetriesTransient(t *testing.T) {
	f := &fakeCompleter{fn: func(_ context.Context, n int32) (string, error) {
		if n < 3 {
			return "", resilience.Transient(errors.New("overloaded"), 529)
		}
		return `{"ok":true}`, nil
	}}

	out, err := WithResilience(f, fastPolicy(), nil, 0).Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestResilient_DoesNotRetryPermanent(t *testing.T) {
	f := &fakeCompleter{fn: func(context.Context, int32) (string, error) {
		return "", errors.New("invalid api key")
	}}

	_, err := WithResilience(f, fastPolicy(), nil, 0).Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "invalid api key")
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestResilient_AttemptTimeoutIsRetried(t *testing.T) {
	f := &fakeCompleter{fn: func(ctx context.Context, n int32) (string, error) {
		if n == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "{}", nil
	}}

	out, err := WithResilience(f, fastPolicy(), nil, 20*time.Millisecond).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestResilient_OpenBreaker(t *testing.T) {
	breaker := resilience.NewBreaker("llm", resilience.BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	f := &fakeCompleter{fn: func(context.Context, int32) (string, error) {
		return "", errors.New("boom")
	}}
	r := WithResilience(f, resilience.Policy{Attempts: 1}, breaker, 0)

	_, err := r.Complete(context.Background(), Request{})
	require.Error(t, err)

	_, err = r.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, resilience.ErrOpen)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with padding", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":{\"b\":2}} hope it helps", "Here you go: {\"a\":{\"b\":2}} hope it helps"},
		{"prose before fence", "Sure!\n```json\n{\"a\":1}\n```", "Sure!\n```json\n{\"a\":1}\n```"},
		{"unterminated fence", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
		{"no object", "  not json ", "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}
