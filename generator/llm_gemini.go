package generator

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

// GeminiLLM implements LLMClient on top of the Google Gemini API.
type GeminiLLM struct {
	client *genai.Client
	// Model should not start with "models/"
	Model string
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key or llm.api_key_env")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, "genai client")
	}
	return &GeminiLLM{client: client, Model: strings.TrimPrefix(cfg.Model, "models/")}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.Model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt.User}}},
	}, cfg)
	if err != nil {
		return "", errors.Wrap(err, "genai generate")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
