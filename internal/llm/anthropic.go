package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fleveque/company-summarizer/internal/model"
)

// AnthropicClient implements the Client interface using Claude's Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a Claude-backed client.
// The SDK retries on its own by default; that is switched off so the
// completion layer's retry budget is the only one in play.
func NewAnthropicClient(apiKey, model, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client: &client,
		model:  model,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string     { return a.model }

// Complete sends one message. Claude rejects temperature and top_p together
// on recent models, so only temperature is forwarded; the penalties have no
// Anthropic equivalent.
func (a *AnthropicClient) Complete(ctx context.Context, req *model.CompletionRequest) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(req.Params.MaxTokens),
		Temperature: anthropic.Float(float64(req.Params.Temperature)),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(a.ProviderName(), apiErr.StatusCode, err)
		}
		return "", classifyNetwork(a.ProviderName(), err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", emptyCompletion(a.ProviderName())
	}
	return sb.String(), nil
}
