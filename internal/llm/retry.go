package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"go.uber.org/zap"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// #region policy
// RetryPolicy controls backoff for rate-limited calls.
// Delay before retry n (0-based) is BaseDelay*2^n plus a uniform jitter in [0, MaxJitter).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// Sleep and Jitter are swapped out in tests.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter func() float64
}

// DefaultRetryPolicy returns 5 attempts with a 2s base delay and up to 1s of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxJitter:   time.Second,
	}
}

// Backoff returns the delay before retry number attempt (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	jitter := rand.Float64
	if p.Jitter != nil {
		jitter = p.Jitter
	}
	return d + time.Duration(jitter()*float64(p.MaxJitter))
}

// #endregion policy

// #region retrying
type retrying struct {
	next   Generator
	policy RetryPolicy
	logger *zap.Logger
}

// Retrying wraps gen so rate-limited calls are retried per policy.
// Non-retryable errors propagate immediately.
func Retrying(gen Generator, policy RetryPolicy, logger *zap.Logger) Generator {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepCtx
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{next: gen, policy: policy, logger: logger}
}

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		text, err := r.next.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if !IsRetryable(err) {
			return "", err
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		delay := r.policy.Backoff(attempt)
		r.logger.Warn("rate limited, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := r.policy.Sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("retry wait: %w", err)
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, r.policy.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// #endregion retrying

// #region classify
var rateLimitFragments = []string{
	"429", "resource exhausted", "resource_exhausted", "quota", "rate limit", "too many requests",
}

// IsRetryable reports whether err is a transient rate-limit condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// typed provider errors first: status.FromError calls Error(), which some provider errors
	// cannot render without their HTTP exchange attached
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return oaErr.StatusCode == 429
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code == 429
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, frag := range rateLimitFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// #endregion classify
