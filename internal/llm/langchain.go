package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// #region langchain
// LangChain generates text through any langchaingo model, typically an
// OpenAI-compatible endpoint such as DeepSeek.
type LangChain struct {
	model llms.Model
}

// NewLangChain builds an OpenAI-compatible langchaingo client.
func NewLangChain(apiKey, baseURL, model string) (*LangChain, error) {
	opts := []lcopenai.Option{lcopenai.WithToken(apiKey)}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	if model != "" {
		opts = append(opts, lcopenai.WithModel(model))
	}
	m, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain client: %w", err)
	}
	return &LangChain{model: m}, nil
}

// NewLangChainWithModel wraps an existing langchaingo model.
func NewLangChainWithModel(m llms.Model) *LangChain {
	return &LangChain{model: m}
}

// Generate sends a single-turn prompt.
func (l *LangChain) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt)
	if err != nil {
		return "", fmt.Errorf("langchain generate: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// #endregion langchain
