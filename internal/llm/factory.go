package llm

import (
	"context"
	"fmt"

	"github.com/fleveque/company-summarizer/internal/model"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Settings selects and authenticates one provider.
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // optional override, mostly for tests
}

// New builds the configured provider. An unknown provider name or a missing
// key is a configuration error.
func New(ctx context.Context, s Settings) (Client, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key for provider %q", model.ErrConfiguration, s.Provider)
	}

	switch s.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(s.APIKey, s.Model, s.BaseURL), nil
	case ProviderAnthropic:
		return NewAnthropicClient(s.APIKey, s.Model, s.BaseURL), nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, s.APIKey, s.Model, s.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", model.ErrConfiguration, s.Provider)
	}
}
