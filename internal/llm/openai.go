package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fleveque/company-summarizer/internal/model"
)

// OpenAIClient implements the Client interface with OpenAI chat completions.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a chat-completion client. baseURL may be empty to
// use the public API; tests point it at an httptest server.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string     { return o.model }

func (o *OpenAIClient) Complete(ctx context.Context, req *model.CompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:        req.Params.MaxTokens,
		Temperature:      req.Params.Temperature,
		TopP:             req.Params.TopP,
		FrequencyPenalty: req.Params.FrequencyPenalty,
		PresencePenalty:  req.Params.PresencePenalty,
	})
	if err != nil {
		return "", classifyOpenAI(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", emptyCompletion(o.ProviderName())
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAI inspects the two error types go-openai returns for HTTP failures.
// APIError is a decoded JSON error body; RequestError is a non-JSON response.
func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus("openai", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus("openai", reqErr.HTTPStatusCode, err)
	}
	return classifyNetwork("openai", err)
}
