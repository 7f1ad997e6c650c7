package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fleveque/company-summarizer/internal/model"
)

// serviceAccountSchema describes the fields the Sheets client needs from a
// Google service account key file.
const serviceAccountSchema = `{
	"type": "object",
	"required": ["type", "project_id", "private_key", "client_email"],
	"properties": {
		"type":         {"enum": ["service_account"]},
		"project_id":   {"type": "string", "minLength": 1},
		"private_key":  {"type": "string", "minLength": 1},
		"client_email": {"type": "string", "minLength": 1}
	}
}`

var (
	validProviders  = []string{"openai", "anthropic", "gemini"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"console", "json"}
)

// Validate checks the loaded configuration before any external call is made.
// All problems are reported together so an operator can fix them in one pass.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !slices.Contains(validProviders, c.LLM.Provider) {
		add("LLM_PROVIDER must be one of %s, got %q", strings.Join(validProviders, ", "), c.LLM.Provider)
	} else if c.LLM.APIKey() == "" {
		add("%s_API_KEY is required for provider %s", strings.ToUpper(c.LLM.Provider), c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		add("MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		add("TEMPERATURE must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		add("TOP_P must be between 0 and 1, got %g", c.LLM.TopP)
	}
	if c.LLM.FrequencyPenalty < -2 || c.LLM.FrequencyPenalty > 2 {
		add("FREQUENCY_PENALTY must be between -2 and 2, got %g", c.LLM.FrequencyPenalty)
	}
	if c.LLM.PresencePenalty < -2 || c.LLM.PresencePenalty > 2 {
		add("PRESENCE_PENALTY must be between -2 and 2, got %g", c.LLM.PresencePenalty)
	}

	if c.Retry.MaxRetries < 1 {
		add("MAX_RETRIES must be at least 1, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.CallsPerMinute < 1 {
		add("RATE_LIMIT_CALLS_PER_MINUTE must be at least 1, got %d", c.Retry.CallsPerMinute)
	}
	if c.Retry.RateLimitBackoff < 0 || c.Retry.Backoff < 0 {
		add("backoff durations must not be negative")
	}

	if c.Prompt.Path == "" {
		add("PROMPT_PATH is required")
	} else if _, err := os.Stat(c.Prompt.Path); err != nil {
		add("prompt template %s is not readable: %v", c.Prompt.Path, err)
	}

	if c.Sheets.SpreadsheetID == "" {
		add("GOOGLE_SHEETS_ID is required")
	}
	if c.Sheets.CredentialsFile == "" {
		add("GOOGLE_SHEETS_CREDENTIALS_FILE is required")
	} else if err := checkCredentials(c.Sheets.CredentialsFile); err != nil {
		add("%v", err)
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		add("LOG_LEVEL must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.Log.Level)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		add("LOG_FORMAT must be one of %s, got %q", strings.Join(validLogFormats, ", "), c.Log.Format)
	}

	if c.Status.Enabled() {
		if c.Status.RequestsPerSecond <= 0 {
			add("STATUS_REQUESTS_PER_SECOND must be positive, got %g", c.Status.RequestsPerSecond)
		}
		if c.Status.Burst < 1 {
			add("STATUS_BURST must be at least 1, got %d", c.Status.Burst)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", model.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// checkCredentials makes sure the file exists and looks like a service
// account key, so a wrong file fails here instead of on the first API call.
func checkCredentials(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("credentials file %s is not readable: %w", path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(serviceAccountSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("credentials file %s is not valid JSON: %w", path, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("credentials file %s is not a service account key: %s", path, strings.Join(msgs, ", "))
	}
	return nil
}
