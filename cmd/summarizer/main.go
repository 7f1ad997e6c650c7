// Package main is the entry point for the company summarizer.
// It reads company names from a Google Sheet, asks an LLM for a research
// summary of each one and writes the results to a new worksheet.
//
// Run with: go run ./cmd/summarizer
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/completion"
	"github.com/fleveque/company-summarizer/internal/config"
	"github.com/fleveque/company-summarizer/internal/generation"
	"github.com/fleveque/company-summarizer/internal/llm"
	"github.com/fleveque/company-summarizer/internal/logging"
	"github.com/fleveque/company-summarizer/internal/metrics"
	"github.com/fleveque/company-summarizer/internal/model"
	"github.com/fleveque/company-summarizer/internal/progress"
	"github.com/fleveque/company-summarizer/internal/prompt"
	"github.com/fleveque/company-summarizer/internal/quality"
	"github.com/fleveque/company-summarizer/internal/ratelimit"
	"github.com/fleveque/company-summarizer/internal/server"
	"github.com/fleveque/company-summarizer/internal/service"
	"github.com/fleveque/company-summarizer/internal/spreadsheet"
)

// Exit codes. Anything that is not a clean run ends non-zero so schedulers
// notice.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
	exitDataError   = 3
	exitInterrupted = 130
)

func main() {
	// signal.NotifyContext cancels ctx on Ctrl+C or SIGTERM (docker stop).
	// The run notices between companies and still writes what it has.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	// os.Exit skips deferred calls, so it only happens here, after run()
	// has cleaned up.
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func rootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarizer",
		Short: "Summarize the companies listed in a Google Sheet with an LLM",
		Long: `summarizer reads company names from the input worksheet, generates a
research summary for each one and writes the results to a new worksheet.

All settings come from environment variables (or a .env file) and an
optional YAML file named by SUMMARIZER_CONFIG_PATH.`,
		Args: cobra.NoArgs,
		// Errors are printed once by main, not by cobra as well.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load(os.Getenv("SUMMARIZER_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("%w: creating logger: %w", model.ErrConfiguration, err)
	}
	// Sync flushes buffered log entries. It commonly fails on stdout/stderr,
	// so the error is ignored.
	defer func() { _ = logger.Sync() }()

	clk := clock.New()
	m := metrics.New()
	tracker := progress.NewTracker(clk.Now)

	svc, err := buildService(ctx, cfg, clk, m, tracker, logger)
	if err != nil {
		return err
	}

	if cfg.Status.Enabled() {
		srv := server.New(cfg.Status, server.Deps{Progress: tracker, Metrics: m}, logger, cfg.Log.Level == "debug")
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown", zap.Error(err))
			}
		}()
	}

	report, runErr := svc.Run(ctx, func(completed, total int, name string) {
		tracker.OnProgress(completed, total, name)
		fmt.Fprintln(out, progress.Line(completed, total, name))
	})
	tracker.Finish(report.Status)
	printReport(out, report)
	return runErr
}

// buildService wires every stage from the configuration. Anything that fails
// here is a startup problem, so no spreadsheet has been touched yet.
func buildService(
	ctx context.Context,
	cfg *config.Config,
	clk clock.Clock,
	m *metrics.Metrics,
	tracker *progress.Tracker,
	logger *zap.Logger,
) (*service.SummaryService, error) {
	prompts, err := prompt.Load(cfg.Prompt.Path)
	if err != nil {
		return nil, err
	}

	client, err := llm.New(ctx, llm.Settings{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey(),
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	window, err := ratelimit.New(cfg.Retry.CallsPerMinute, ratelimit.DefaultWindow, clk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	window.OnWait = func(d time.Duration) {
		logger.Info("rate limit reached, waiting", zap.Duration("wait", d))
	}

	completer := completion.NewClient(client, window, clk, completion.RetryPolicy{
		MaxAttempts:      cfg.Retry.MaxRetries,
		RateLimitBackoff: cfg.Retry.RateLimitBackoff,
		Backoff:          cfg.Retry.Backoff,
	}, m, logger)

	stage := generation.NewStage(completer, prompts, cfg.LLM.Parameters(), quality.NewValidator(), logger,
		generation.WithClock(clk),
		generation.WithMetrics(m),
		generation.WithStateHook(tracker.OnState),
	)

	sheets, err := spreadsheet.NewGoogleAPI(ctx, cfg.Sheets.CredentialsFile)
	if err != nil {
		return nil, err
	}
	reader := spreadsheet.NewReader(sheets, cfg.Sheets.SpreadsheetID, cfg.Sheets.InputWorksheet, logger)
	writer := spreadsheet.NewWriter(sheets, cfg.Sheets.SpreadsheetID, cfg.Sheets.OutputWorksheet, clk, logger)

	logger.Info("summarizer configured",
		zap.String("provider", client.ProviderName()),
		zap.String("model", client.ModelName()),
		zap.Int("calls_per_minute", cfg.Retry.CallsPerMinute),
		zap.Int("max_retries", cfg.Retry.MaxRetries),
	)

	return service.NewSummaryService(trackedSource{reader, tracker}, stage, writer, clk, logger), nil
}

// trackedSource starts the progress tracker once the company count is known.
type trackedSource struct {
	source  service.NameSource
	tracker *progress.Tracker
}

func (t trackedSource) ReadCompanyNames(ctx context.Context) ([]string, error) {
	names, err := t.source.ReadCompanyNames(ctx)
	if err == nil {
		t.tracker.Start(len(names))
	}
	return names, err
}

func printReport(out io.Writer, r *service.Report) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run %s: %s\n", r.RunID, r.Status)
	fmt.Fprintf(out, "  Companies processed: %d\n", r.Processed)
	fmt.Fprintf(out, "  Successful:          %d\n", r.Successful)
	fmt.Fprintf(out, "  Warnings:            %d\n", r.Warnings)
	fmt.Fprintf(out, "  Failed:              %d\n", r.Failed)
	if r.UnrecognizedConfidence > 0 {
		fmt.Fprintf(out, "  Unrecognized confidence values: %d\n", r.UnrecognizedConfidence)
	}
	fmt.Fprintf(out, "  Duration:            %s\n", r.Duration.Round(time.Second))
	if r.OutputURL != "" {
		fmt.Fprintf(out, "  Results:             %s\n", r.OutputURL)
	}
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, model.ErrConfiguration):
		return exitConfigError
	case errors.Is(err, model.ErrData):
		return exitDataError
	default:
		return exitFailure
	}
}
