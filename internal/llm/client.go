// Package llm provides a provider-agnostic interface for text completion.
// OpenAI, Anthropic (Claude) and Google Gemini implement it; exactly one is
// selected by configuration for a run.
package llm

import (
	"context"

	"github.com/fleveque/company-summarizer/internal/model"
)

// SystemPrompt frames every request as business research.
const SystemPrompt = "You are a professional business analyst with expertise in company research and market analysis. " +
	"Provide accurate, well-structured business summaries based on publicly available information. " +
	"Focus on factual information and clearly indicate when information is limited or uncertain."

// Client is the interface for completion providers.
//
// Complete performs exactly one remote call, no retries. Failures are wrapped
// with ErrRateLimited or ErrTransient when a retry could help; anything else
// is permanent.
//
// Go interface design tip: keep interfaces small. The retry loop and rate
// budget live one layer up (internal/completion), so a provider only has to
// know how to talk to its API.
type Client interface {
	Complete(ctx context.Context, req *model.CompletionRequest) (string, error)
	ProviderName() string
	ModelName() string
}
