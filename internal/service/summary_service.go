// Package service contains the workflow that ties the three stages together:
//
//	Input:      read company names from the input worksheet
//	Generation: summarize each company (rate-limited, retried, validated)
//	Output:     write one row per company to a new worksheet
//
// Configuration and data problems abort before anything is written. Once
// generation has started, whatever was produced is always written, even if
// the run is interrupted.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/generation"
	"github.com/fleveque/company-summarizer/internal/model"
)

// Run statuses reported in Report.Status.
const (
	RunCompleted   = "completed"
	RunCancelled   = "cancelled"
	RunFailed      = "failed"
	RunNoCompanies = "no_companies"
)

// flushTimeout bounds the final write after an interrupted run.
const flushTimeout = 30 * time.Second

// NameSource is satisfied by *spreadsheet.Reader.
type NameSource interface {
	ReadCompanyNames(ctx context.Context) ([]string, error)
}

// Generator is satisfied by *generation.Stage.
type Generator interface {
	Run(ctx context.Context, names []string, progress generation.ProgressFunc) ([]model.CompanyResult, error)
}

// ResultSink is satisfied by *spreadsheet.Writer.
type ResultSink interface {
	WriteResults(ctx context.Context, results []model.CompanyResult) (string, error)
}

// Report summarizes one run.
type Report struct {
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	Processed  int           `json:"companies_processed"`
	Successful int           `json:"successful_summaries"`
	Warnings   int           `json:"warnings"`
	Failed     int           `json:"failed_summaries"`
	StartedAt  time.Time     `json:"start_time"`
	FinishedAt time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	OutputURL  string        `json:"output_url,omitempty"`
	Errors     []string      `json:"errors,omitempty"`

	// UnrecognizedConfidence counts summaries whose DATA CONFIDENCE was not
	// HIGH, MEDIUM or LOW and was written as returned.
	UnrecognizedConfidence int `json:"unrecognized_confidence"`
}

// SummaryService runs the input → generation → output workflow.
type SummaryService struct {
	source    NameSource
	generator Generator
	sink      ResultSink
	clock     clock.Clock
	logger    *zap.Logger
}

// NewSummaryService wires the three stages. clk may be nil for the wall clock.
func NewSummaryService(source NameSource, generator Generator, sink ResultSink, clk clock.Clock, logger *zap.Logger) *SummaryService {
	if clk == nil {
		clk = clock.New()
	}
	return &SummaryService{
		source:    source,
		generator: generator,
		sink:      sink,
		clock:     clk,
		logger:    logger,
	}
}

// Run executes one batch. The returned Report is never nil, even on error,
// so the caller can always print what happened.
//
// Errors: model.ErrData / model.ErrConfiguration for fatal pre-batch
// problems, a wrapped context error if the run was interrupted (results are
// still written), or the writer's error.
func (s *SummaryService) Run(ctx context.Context, progress generation.ProgressFunc) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Status:    RunFailed,
		StartedAt: s.clock.Now(),
	}
	logger := s.logger.With(zap.String("run_id", report.RunID))
	logger.Info("starting company summarization run")

	// Stage 1: input
	names, err := s.source.ReadCompanyNames(ctx)
	if err != nil {
		return s.fail(report, fmt.Errorf("reading company list: %w", err))
	}
	if len(names) == 0 {
		report.Status = RunNoCompanies
		return s.fail(report, fmt.Errorf("%w: no companies found in the input worksheet", model.ErrData))
	}
	report.Processed = len(names)
	logger.Info("loaded companies", zap.Int("count", len(names)))

	// Stage 2: generation
	results, genErr := s.generator.Run(ctx, names, progress)
	if genErr != nil && !errors.Is(genErr, context.Canceled) && !errors.Is(genErr, context.DeadlineExceeded) {
		return s.fail(report, fmt.Errorf("generating summaries: %w", genErr))
	}
	s.tally(report, results)

	// Stage 3: output. After an interruption the original context is done,
	// so the write gets its own bounded one.
	writeCtx := ctx
	if genErr != nil {
		logger.Warn("run interrupted, writing partial results",
			zap.Int("written", len(results)),
			zap.Int("total", len(names)),
		)
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
	}

	url, err := s.sink.WriteResults(writeCtx, results)
	if err != nil {
		return s.fail(report, fmt.Errorf("writing results: %w", err))
	}
	report.OutputURL = url
	s.finish(report)

	if genErr != nil {
		report.Status = RunCancelled
		report.Errors = append(report.Errors, genErr.Error())
		logger.Warn("run cancelled", zap.String("output_url", url))
		return report, genErr
	}

	report.Status = RunCompleted
	logger.Info("run completed",
		zap.Int("successful", report.Successful),
		zap.Int("warnings", report.Warnings),
		zap.Int("failed", report.Failed),
		zap.Int("unrecognized_confidence", report.UnrecognizedConfidence),
		zap.Duration("duration", report.Duration),
		zap.String("output_url", url),
	)
	return report, nil
}

func (s *SummaryService) tally(report *Report, results []model.CompanyResult) {
	for _, r := range results {
		if r.Metadata.ConfidenceUnrecognized {
			report.UnrecognizedConfidence++
		}
		switch r.Status {
		case model.StatusSuccess:
			report.Successful++
		case model.StatusWarning:
			report.Warnings++
		default:
			report.Failed++
		}
	}
}

func (s *SummaryService) finish(report *Report) {
	report.FinishedAt = s.clock.Now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)
}

func (s *SummaryService) fail(report *Report, err error) (*Report, error) {
	s.finish(report)
	report.Errors = append(report.Errors, err.Error())
	s.logger.Error("run failed", zap.String("run_id", report.RunID), zap.Error(err))
	return report, err
}
