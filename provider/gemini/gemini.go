// Package gemini provides a provider backed by the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/GoCodeAlone/todochat/provider"
)

const defaultModel = "gemini-2.0-flash"

// Provider is a Gemini text-generation provider.
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a Gemini provider with the given API key and model.
// If model is empty, defaults to gemini-2.0-flash. baseURL overrides the API
// endpoint and is normally empty.
func New(ctx context.Context, apiKey, model, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: api key is required", provider.ErrUnavailable)
	}
	if model == "" {
		model = defaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "gemini" }

// Chat sends a non-streaming GenerateContent request.
func (p *Provider) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	system, turns := provider.SplitSystem(messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == provider.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	out := &provider.Response{Content: resp.Text()}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
