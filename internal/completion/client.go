// Package completion turns a provider's single-shot Complete into a
// rate-limited, retried call. Every attempt consumes one unit of the shared
// rate budget, and at most MaxAttempts calls are made per request.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/llm"
	"github.com/fleveque/company-summarizer/internal/metrics"
	"github.com/fleveque/company-summarizer/internal/model"
)

// ErrExhausted is wrapped around the last failure once every attempt is used
// or the failure is permanent.
var ErrExhausted = errors.New("completion failed")

// Limiter is satisfied by *ratelimit.Window.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// RetryPolicy bounds and paces retries.
type RetryPolicy struct {
	MaxAttempts      int           // total calls, including the first
	RateLimitBackoff time.Duration // after a provider 429
	Backoff          time.Duration // after any other transient failure
}

// DefaultRetryPolicy is three attempts with a 60s wait after a 429 and 5s otherwise.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      3,
		RateLimitBackoff: 60 * time.Second,
		Backoff:          5 * time.Second,
	}
}

// Client wraps an llm.Client with the rate budget and retry loop.
type Client struct {
	llm     llm.Client
	limiter Limiter
	clock   clock.Clock
	policy  RetryPolicy
	metrics *metrics.Metrics // nil disables metrics
	logger  *zap.Logger
}

// NewClient wires the retry layer. metrics may be nil.
func NewClient(
	client llm.Client,
	limiter Limiter,
	clk clock.Clock,
	policy RetryPolicy,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Client{
		llm:     client,
		limiter: limiter,
		clock:   clk,
		policy:  policy,
		metrics: m,
		logger:  logger,
	}
}

// Complete sends req, waiting for budget before each attempt and backing off
// between retryable failures. Context cancellation is returned as-is
// (wrapped) and is never counted as an exhausted completion.
func (c *Client) Complete(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	ctx, span := otel.Tracer("company-summarizer/completion").Start(ctx, "completion.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.llm.ProviderName()),
		attribute.String("llm.model", c.llm.ModelName()),
		attribute.String("company", req.CompanyName),
	)

	start := c.clock.Now()
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.acquire(ctx); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("waiting for rate budget: %w", err)
		}

		text, err := c.llm.Complete(ctx, req)
		if err == nil {
			c.observe("success")
			elapsed := c.clock.Now().Sub(start)
			if c.metrics != nil {
				c.metrics.CompletionDuration.WithLabelValues(c.llm.ProviderName()).Observe(elapsed.Seconds())
			}
			span.SetAttributes(attribute.Int("completion.attempts", attempt))
			return &model.CompletionResult{
				RawText:  strings.TrimSpace(text),
				Duration: elapsed,
				Attempts: attempt,
			}, nil
		}

		// The caller gave up; don't dress that up as a provider failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("completion for %s: %w", req.CompanyName, ctxErr)
		}

		lastErr = err
		c.observe(outcome(err))

		if !llm.IsRetryable(err) {
			c.logger.Warn("permanent completion failure",
				zap.String("company", req.CompanyName),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			break
		}

		if attempt == c.policy.MaxAttempts {
			break
		}

		wait := c.policy.Backoff
		if errors.Is(err, llm.ErrRateLimited) {
			wait = c.policy.RateLimitBackoff
		}
		c.logger.Warn("completion attempt failed, retrying",
			zap.String("company", req.CompanyName),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := c.clock.Sleep(ctx, wait); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("backing off: %w", err)
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "exhausted")
	return nil, fmt.Errorf("%w for %s: %w", ErrExhausted, req.CompanyName, lastErr)
}

func (c *Client) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	start := c.clock.Now()
	err := c.limiter.Acquire(ctx)
	if c.metrics != nil {
		c.metrics.RateLimitWait.Observe(c.clock.Now().Sub(start).Seconds())
	}
	return err
}

func (c *Client) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CompletionAttempts.WithLabelValues(c.llm.ProviderName(), result).Inc()
}

func outcome(err error) string {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, llm.ErrTransient):
		return "transient"
	default:
		return "permanent"
	}
}
