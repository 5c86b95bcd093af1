package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiCompleter completes prompts with the Gemini API, asking for an
// application/json response.
type GeminiCompleter struct {
	client *genai.Client
	cfg    Config
}

// NewGeminiCompleter creates a completer from cfg.
func NewGeminiCompleter(ctx context.Context, cfg Config) (*GeminiCompleter, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini: create client")
	}
	return &GeminiCompleter{client: client, cfg: cfg}, nil
}

// Name implements Completer.
func (c *GeminiCompleter) Name() string { return ProviderGemini }

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	system, temperature, maxTokens := c.cfg.settings(req)
	temp := float32(temperature)

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       &temp,
		MaxOutputTokens:   int32(maxTokens),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(eris.Wrap(err, "llm: gemini: complete"), apiErr.Code)
		}
		return "", eris.Wrap(err, "llm: gemini: complete")
	}

	if resp.UsageMetadata != nil {
		zap.L().Info("cost attribution",
			zap.String("provider", ProviderGemini),
			zap.String("model", c.cfg.Model),
			zap.String("op", req.Op),
			zap.Int32("input_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil && !p.Thought {
				text.WriteString(p.Text)
			}
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
