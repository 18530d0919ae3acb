package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// #region factory
// New builds the configured provider wrapped with timeout and retry handling.
// The returned close func releases provider resources and is never nil.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Generator, func() error, error) {
	noop := func() error { return nil }

	var (
		base    Generator
		closeFn = noop
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		base = g
	case ProviderOpenAI:
		base = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case ProviderLangChain:
		l, err := NewLangChain(cfg.APIKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		base = l
	case ProviderSidecar:
		s, err := NewSidecar(cfg.SidecarAddr, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		base, closeFn = s, s.Close
	default:
		return nil, noop, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.Timeout > 0 {
		base = WithTimeout(base, cfg.Timeout)
	}
	return Retrying(base, cfg.Retry, logger), closeFn, nil
}

// #endregion factory

// #region timeout
// WithTimeout bounds every call to gen by d.
func WithTimeout(gen Generator, d time.Duration) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return gen.Generate(ctx, prompt)
	})
}

// #endregion timeout
