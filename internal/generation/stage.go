// Package generation runs every company name through the completion,
// validation and extraction steps, one at a time and in input order.
//
// A failure for one company never stops the batch: it becomes an Error row
// and the stage moves on. Only context cancellation ends a run early.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/extract"
	"github.com/fleveque/company-summarizer/internal/metrics"
	"github.com/fleveque/company-summarizer/internal/model"
	"github.com/fleveque/company-summarizer/internal/quality"
)

// Completer is satisfied by *completion.Client.
type Completer interface {
	Complete(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error)
}

// RequestBuilder is satisfied by *prompt.Builder.
type RequestBuilder interface {
	Request(companyName string, params model.Parameters) *model.CompletionRequest
}

// ProgressFunc is called synchronously after each company reaches a final state.
type ProgressFunc func(completed, total int, companyName string)

// StateFunc observes every state transition of every company.
type StateFunc func(companyName string, state model.State)

// Stage is the generation step of the pipeline.
type Stage struct {
	completer Completer
	prompts   RequestBuilder
	params    model.Parameters
	validator *quality.Validator
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *zap.Logger
	onState   StateFunc
}

// Option customizes a Stage.
type Option func(*Stage)

// WithStateHook registers a callback for state transitions.
func WithStateHook(fn StateFunc) Option {
	return func(s *Stage) { s.onState = fn }
}

// WithClock sets the clock used for result timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Stage) { s.clock = c }
}

// WithMetrics records per-status result counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Stage) { s.metrics = m }
}

// NewStage creates a generation stage.
func NewStage(
	completer Completer,
	prompts RequestBuilder,
	params model.Parameters,
	validator *quality.Validator,
	logger *zap.Logger,
	opts ...Option,
) *Stage {
	s := &Stage{
		completer: completer,
		prompts:   prompts,
		params:    params,
		validator: validator,
		clock:     clock.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes names in order and returns one result per name.
//
// If ctx is cancelled, Run returns the results collected so far together
// with an error wrapping ctx.Err(). The company being processed at that
// moment is not recorded.
func (s *Stage) Run(ctx context.Context, names []string, progress ProgressFunc) ([]model.CompanyResult, error) {
	total := len(names)
	results := make([]model.CompanyResult, 0, total)

	if s.metrics != nil {
		s.metrics.CompaniesTotal.Set(float64(total))
		s.metrics.CompaniesDone.Set(0)
	}

	// Names are trimmed once so every hook and callback sees the same key.
	trimmed := make([]string, len(names))
	for i, name := range names {
		trimmed[i] = strings.TrimSpace(name)
		s.transition(trimmed[i], model.StatePending)
	}

	for i, name := range trimmed {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("generation stopped after %d of %d companies: %w", len(results), total, err)
		}

		res, err := s.process(ctx, name)
		if err != nil {
			return results, fmt.Errorf("generation stopped after %d of %d companies: %w", len(results), total, err)
		}
		results = append(results, res)

		if s.metrics != nil {
			s.metrics.Results.WithLabelValues(string(res.Status)).Inc()
			s.metrics.CompaniesDone.Set(float64(i + 1))
		}
		if progress != nil {
			progress(i+1, total, name)
		}
	}

	return results, nil
}

// process runs one company through the state machine. A non-nil error is
// returned only for cancellation; every other failure is folded into the row.
func (s *Stage) process(ctx context.Context, name string) (model.CompanyResult, error) {
	ctx, span := otel.Tracer("company-summarizer/generation").Start(ctx, "generation.process")
	defer span.End()
	span.SetAttributes(attribute.String("company", name))

	if name == "" {
		return s.finish(span, errorRow(name, "company name is empty", s.clock.Now())), nil
	}

	s.transition(name, model.StateRequesting)
	req := s.prompts.Request(name, s.params)

	comp, err := s.completer.Complete(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "cancelled")
			return model.CompanyResult{}, ctxErr
		}
		s.logger.Error("completion failed",
			zap.String("company", name),
			zap.Error(err),
		)
		return s.finish(span, errorRow(name, err.Error(), s.clock.Now())), nil
	}

	s.transition(name, model.StateValidating)
	verdict := s.validator.Validate(comp.RawText)

	res := model.CompanyResult{
		CompanyName: name,
		Summary:     comp.RawText,
		Status:      model.StatusSuccess,
		Timestamp:   s.clock.Now(),
		Attempts:    comp.Attempts,
		Metadata:    extract.Extract(comp.RawText),
	}
	if !verdict.Acceptable {
		res.Status = model.StatusWarning
		res.ErrorMessage = "response quality below threshold: " + verdict.Reason
		s.logger.Warn("low quality summary",
			zap.String("company", name),
			zap.String("reason", verdict.Reason),
		)
	}
	if res.Metadata.ConfidenceUnrecognized {
		raw, _ := res.Metadata.Value(model.FieldDataConfidence)
		s.logger.Warn("unrecognized data confidence value",
			zap.String("company", name),
			zap.String("value", raw),
		)
	}

	span.SetAttributes(
		attribute.Int("completion.attempts", comp.Attempts),
		attribute.Int64("completion.duration_ms", comp.Duration.Milliseconds()),
	)
	return s.finish(span, res), nil
}

func (s *Stage) finish(span trace.Span, res model.CompanyResult) model.CompanyResult {
	if res.Status == model.StatusError {
		span.SetStatus(codes.Error, res.ErrorMessage)
	}
	s.transition(res.CompanyName, model.StateFor(res.Status))
	return res
}

func (s *Stage) transition(name string, state model.State) {
	if s.onState != nil {
		s.onState(name, state)
	}
}

func errorRow(name, reason string, at time.Time) model.CompanyResult {
	return model.CompanyResult{
		CompanyName:  name,
		Summary:      "Error generating summary: " + reason,
		Status:       model.StatusError,
		ErrorMessage: reason,
		Timestamp:    at,
	}
}
