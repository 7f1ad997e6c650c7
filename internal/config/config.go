// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults, merged in priority order.
// Go convention: configuration is loaded into structs, not accessed as raw key-value pairs.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fleveque/company-summarizer/internal/model"
)

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Retry  RetryConfig  `mapstructure:"retry"`
	Prompt PromptConfig `mapstructure:"prompt"`
	Sheets SheetsConfig `mapstructure:"sheets"`
	Status StatusConfig `mapstructure:"status"`
	Log    LogConfig    `mapstructure:"log"`
}

type LLMConfig struct {
	Provider         string      `mapstructure:"provider"`
	Model            string      `mapstructure:"model"`
	BaseURL          string      `mapstructure:"base_url"`
	MaxTokens        int         `mapstructure:"max_tokens"`
	Temperature      float64     `mapstructure:"temperature"`
	TopP             float64     `mapstructure:"top_p"`
	FrequencyPenalty float64     `mapstructure:"frequency_penalty"`
	PresencePenalty  float64     `mapstructure:"presence_penalty"`
	OpenAI           ProviderKey `mapstructure:"openai"`
	Anthropic        ProviderKey `mapstructure:"anthropic"`
	Gemini           ProviderKey `mapstructure:"gemini"`
}

type ProviderKey struct {
	APIKey string `mapstructure:"api_key"`
}

type RetryConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	CallsPerMinute   int           `mapstructure:"calls_per_minute"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
	Backoff          time.Duration `mapstructure:"backoff"`
}

type PromptConfig struct {
	Path string `mapstructure:"path"`
}

type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	InputWorksheet  string `mapstructure:"input_worksheet"`
	OutputWorksheet string `mapstructure:"output_worksheet"`
}

// StatusConfig controls the optional HTTP status server. It is off unless
// Address is set.
type StatusConfig struct {
	Address           string   `mapstructure:"address"`
	APIKeys           []string `mapstructure:"api_keys"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	Burst             int      `mapstructure:"burst"`
}

// Enabled reports whether the status server should run.
func (s StatusConfig) Enabled() bool { return s.Address != "" }

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps config keys to the environment variable names operators use.
var envBindings = map[string]string{
	"llm.provider":               "LLM_PROVIDER",
	"llm.model":                  "MODEL",
	"llm.base_url":               "LLM_BASE_URL",
	"llm.max_tokens":             "MAX_TOKENS",
	"llm.temperature":            "TEMPERATURE",
	"llm.top_p":                  "TOP_P",
	"llm.frequency_penalty":      "FREQUENCY_PENALTY",
	"llm.presence_penalty":       "PRESENCE_PENALTY",
	"llm.openai.api_key":         "OPENAI_API_KEY",
	"llm.anthropic.api_key":      "ANTHROPIC_API_KEY",
	"llm.gemini.api_key":         "GEMINI_API_KEY",
	"retry.max_retries":          "MAX_RETRIES",
	"retry.calls_per_minute":     "RATE_LIMIT_CALLS_PER_MINUTE",
	"retry.rate_limit_backoff":   "RATE_LIMIT_BACKOFF",
	"retry.backoff":              "RETRY_BACKOFF",
	"prompt.path":                "PROMPT_PATH",
	"sheets.credentials_file":    "GOOGLE_SHEETS_CREDENTIALS_FILE",
	"sheets.spreadsheet_id":      "GOOGLE_SHEETS_ID",
	"sheets.input_worksheet":     "INPUT_WORKSHEET",
	"sheets.output_worksheet":    "OUTPUT_WORKSHEET",
	"status.address":             "STATUS_ADDRESS",
	"status.api_keys":            "STATUS_API_KEYS",
	"status.allowed_origins":     "STATUS_ALLOWED_ORIGINS",
	"status.requests_per_second": "STATUS_REQUESTS_PER_SECOND",
	"status.burst":               "STATUS_BURST",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
}

// defaultModels is used when MODEL is not set.
var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-5-20250929",
	"gemini":    "gemini-2.5-flash",
}

// Load reads configuration from a .env file, an optional YAML file and
// environment variables, then validates it. Every failure wraps
// model.ErrConfiguration so main can tell it apart from runtime errors.
//
// In Go, functions return errors as the last return value and callers must check them.
func Load(configPath string) (*Config, error) {
	// .env is a convenience for local runs; real environment variables win.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("%w: loading .env: %w", model.ErrConfiguration, err)
		}
	}

	v := viper.New()

	// Set defaults. These apply when neither file nor env provides a value
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.top_p", 1.0)
	v.SetDefault("llm.frequency_penalty", 0.0)
	v.SetDefault("llm.presence_penalty", 0.0)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.calls_per_minute", 60)
	v.SetDefault("retry.rate_limit_backoff", "60s")
	v.SetDefault("retry.backoff", "5s")
	v.SetDefault("sheets.input_worksheet", "Company List")
	v.SetDefault("status.requests_per_second", 5)
	v.SetDefault("status.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found": defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("%w: reading config file: %w", model.ErrConfiguration, err)
		}
	}

	// Environment variables override everything. The names are the ones the
	// tool has always documented, so they are bound one by one rather than
	// derived from a prefix.
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("%w: binding %s: %w", model.ErrConfiguration, env, err)
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsOrDurationHook,
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}
	cfg.Status.APIKeys = compact(cfg.Status.APIKeys)
	cfg.Status.AllowedOrigins = compact(cfg.Status.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	switch c.Provider {
	case "openai":
		return c.OpenAI.APIKey
	case "anthropic":
		return c.Anthropic.APIKey
	case "gemini":
		return c.Gemini.APIKey
	}
	return ""
}

// Parameters returns the sampling parameters sent with every completion.
func (c LLMConfig) Parameters() model.Parameters {
	return model.Parameters{
		MaxTokens:        c.MaxTokens,
		Temperature:      float32(c.Temperature),
		TopP:             float32(c.TopP),
		FrequencyPenalty: float32(c.FrequencyPenalty),
		PresencePenalty:  float32(c.PresencePenalty),
	}
}

// secondsOrDurationHook accepts "90s"-style durations as well as bare
// numbers, which are read as seconds (RATE_LIMIT_BACKOFF=60).
func secondsOrDurationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", v)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
