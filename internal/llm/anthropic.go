package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/pkg/anthropic"
)

// AnthropicCompleter completes prompts with the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	cfg    Config
}

// NewAnthropicCompleter creates a completer from cfg.
func NewAnthropicCompleter(cfg Config) *AnthropicCompleter {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return NewAnthropicCompleterWithClient(anthropic.NewClient(cfg.APIKey, opts...), cfg)
}

// NewAnthropicCompleterWithClient creates a completer around an existing client.
func NewAnthropicCompleterWithClient(client anthropic.Client, cfg Config) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, cfg: cfg}
}

// Name implements Completer.
func (c *AnthropicCompleter) Name() string { return ProviderAnthropic }

// Complete implements Completer. The reply is primed with "{" so the model
// continues a JSON object.
func (c *AnthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	system, temperature, maxTokens := c.cfg.settings(req)

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.cfg.Model,
		MaxTokens: int64(maxTokens),
		System:    []anthropic.SystemBlock{{Text: system, Cacheable: true}},
		Messages: []anthropic.Message{
			{Role: "user", Content: req.Prompt},
			{Role: "assistant", Content: "{"},
		},
		Temperature: &temperature,
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(eris.Wrap(err, "llm: anthropic: complete"), apiErr.StatusCode)
		}
		return "", eris.Wrap(err, "llm: anthropic: complete")
	}
	resp.Usage.LogCost(c.cfg.Model, req.Op)

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	if !strings.HasPrefix(text, "{") {
		text = "{" + text
	}
	return text, nil
}
