package llm

import (
	"context"
	"errors"
	"time"
)

// #region generator
// Generator is the opaque "generate text from prompt" service every component consumes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// #endregion generator

// #region errors
var (
	// ErrEmptyPrompt is a caller-input error; providers are never called with it.
	ErrEmptyPrompt = errors.New("llm: prompt is empty")
	// ErrRateLimited marks a transient, retryable provider failure.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrUnavailable is returned once retries are exhausted.
	ErrUnavailable = errors.New("llm: generation unavailable")
	// ErrEmptyResponse is a permanent failure: the provider returned no text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrBlocked is a permanent failure: the provider refused the prompt.
	ErrBlocked = errors.New("llm: response blocked")
)

// #endregion errors

// #region config
// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
	ProviderSidecar   = "sidecar"
)

// Config selects and tunes a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string // langchain/openai-compatible endpoints
	SidecarAddr string // host:port of the gRPC inference sidecar
	Timeout     time.Duration
	Retry       RetryPolicy
}

// DefaultConfig returns the Gemini provider with the standard retry policy.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGemini,
		Model:    "gemini-2.0-flash",
		Timeout:  60 * time.Second,
		Retry:    DefaultRetryPolicy(),
	}
}

// #endregion config
