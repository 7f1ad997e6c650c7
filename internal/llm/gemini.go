package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/fleveque/company-summarizer/internal/model"
)

// GeminiClient implements the Client interface using the Gemini Developer API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client authenticated with an API key.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) ProviderName() string { return "gemini" }
func (g *GeminiClient) ModelName() string     { return g.model }

func (g *GeminiClient) Complete(ctx context.Context, req *model.CompletionRequest) (string, error) {
	p := req.Params
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(p.Temperature),
		TopP:              genai.Ptr(p.TopP),
		MaxOutputTokens:   int32(p.MaxTokens),
		FrequencyPenalty:  genai.Ptr(p.FrequencyPenalty),
		PresencePenalty:   genai.Ptr(p.PresencePenalty),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", classifyGemini(err)
	}

	text := resp.Text()
	if text == "" {
		return "", emptyCompletion(g.ProviderName())
	}
	return text, nil
}

// classifyGemini maps genai failures onto the shared sentinels. HTTP
// failures arrive as genai.APIError carrying the status code; anything else
// is a transport problem.
func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus("gemini", apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus("gemini", apiErrPtr.Code, err)
	}
	return classifyNetwork("gemini", err)
}
