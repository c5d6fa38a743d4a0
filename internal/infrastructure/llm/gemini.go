package llm

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/ports"
)

// GeminiClient implements ports.Generator with the Gemini API.
type GeminiClient struct {
	client *genai.Client
}

var _ ports.Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini client misconfigured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Stream yields the text of every streamed response chunk.
func (g *GeminiClient) Stream(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if g == nil || g.client == nil {
			yield("", fmt.Errorf("gemini client is nil"))
			return
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.Prompt), generateConfig(req.Sampling)) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func generateConfig(s domain.Sampling) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.Temperature)),
	}
	if s.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(s.TopP))
	}
	if s.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxTokens)
	}
	return cfg
}
