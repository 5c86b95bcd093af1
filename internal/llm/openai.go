package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// OpenAICompleter completes prompts with the OpenAI chat completions API in
// JSON-object mode.
type OpenAICompleter struct {
	client openai.Client
	cfg    Config
}

// NewOpenAICompleter creates a completer from cfg. Extra options are passed
// to the SDK client.
func NewOpenAICompleter(cfg Config, opts ...option.RequestOption) *OpenAICompleter {
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAICompleter{client: openai.NewClient(append(base, opts...)...), cfg: cfg}
}

// Name implements Completer.
func (c *OpenAICompleter) Name() string { return ProviderOpenAI }

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	system, temperature, maxTokens := c.cfg.settings(req)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(req.Prompt),
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", statusError(eris.Wrap(err, "llm: openai: complete"), apiErr.StatusCode)
		}
		return "", eris.Wrap(err, "llm: openai: complete")
	}

	zap.L().Info("cost attribution",
		zap.String("provider", ProviderOpenAI),
		zap.String("model", resp.Model),
		zap.String("op", req.Op),
		zap.Int64("input_tokens", resp.Usage.PromptTokens),
		zap.Int64("output_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
