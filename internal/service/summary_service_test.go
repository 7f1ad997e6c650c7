package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/completion"
	"github.com/fleveque/company-summarizer/internal/generation"
	"github.com/fleveque/company-summarizer/internal/llm"
	"github.com/fleveque/company-summarizer/internal/model"
	"github.com/fleveque/company-summarizer/internal/prompt"
	"github.com/fleveque/company-summarizer/internal/quality"
	"github.com/fleveque/company-summarizer/internal/ratelimit"
	"github.com/fleveque/company-summarizer/internal/spreadsheet"
	"github.com/fleveque/company-summarizer/internal/spreadsheet/spreadsheettest"
)

const acmeSummary = `COMPANY OVERVIEW: Acme Corp is a diversified manufacturer of industrial widgets.
INDUSTRY & SECTOR: Manufacturing
KEY BUSINESS ACTIVITIES: Widget design, production and aftermarket service.
TARGET MARKET: Industrial buyers
BUSINESS MODEL: Direct B2B sales
DATA CONFIDENCE: high`

// fakeLLM answers per company and can fail or cancel on demand.
type fakeLLM struct {
	mu       sync.Mutex
	answers  map[string]string
	failing  map[string]error
	onPrompt func(prompt string)
	calls    map[string]int
}

func (f *fakeLLM) Complete(ctx context.Context, req *model.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[req.CompanyName]++
	if f.onPrompt != nil {
		f.onPrompt(req.Prompt)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.failing[req.CompanyName]; ok {
		return "", err
	}
	if a, ok := f.answers[req.CompanyName]; ok {
		return a, nil
	}
	return "", fmt.Errorf("fake: %w: no answer", llm.ErrTransient)
}

func (f *fakeLLM) ProviderName() string { return "fake" }
func (f *fakeLLM) ModelName() string     { return "fake-1" }

type harness struct {
	sheet *spreadsheettest.Memory
	llm   *fakeLLM
	clock *clock.Fake
	svc   *SummaryService
}

func newHarness(t *testing.T, companies []string, fake *fakeLLM) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fc := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	sheet := spreadsheettest.NewMemory()
	rows := [][]string{{"Company Name"}}
	for _, c := range companies {
		rows = append(rows, []string{c})
	}
	sheet.SetSheet(spreadsheet.DefaultInputWorksheet, rows)

	limiter, err := ratelimit.New(60, ratelimit.DefaultWindow, fc)
	require.NoError(t, err)
	client := completion.NewClient(fake, limiter, fc, completion.DefaultRetryPolicy(), nil, logger)

	builder, err := prompt.Parse("Research the company {company_name} and report back.")
	require.NoError(t, err)

	stage := generation.NewStage(client, builder, model.Parameters{MaxTokens: 1000, Temperature: 0.3},
		quality.NewValidator(), logger, generation.WithClock(fc))

	reader := spreadsheet.NewReader(sheet, "sheet-id", "", logger)
	writer := spreadsheet.NewWriter(sheet, "sheet-id", "Results", fc, logger)

	return &harness{
		sheet: sheet,
		llm:   fake,
		clock: fc,
		svc:   NewSummaryService(reader, stage, writer, fc, logger),
	}
}

func TestRun_SingleCompanySuccess(t *testing.T) {
	var prompts []string
	fake := &fakeLLM{
		answers:  map[string]string{"Acme Corp": acmeSummary},
		onPrompt: func(p string) { prompts = append(prompts, p) },
	}
	h := newHarness(t, []string{"Acme Corp"}, fake)

	report, err := h.svc.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, RunCompleted, report.Status)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Successful)
	assert.NotEmpty(t, report.RunID)
	assert.Contains(t, report.OutputURL, "https://docs.google.com/spreadsheets/d/sheet-id/edit#gid=")
	assert.Equal(t, []string{"Research the company Acme Corp and report back."}, prompts)

	rows, ok := h.sheet.Sheet("Results")
	require.True(t, ok)
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "Acme Corp", row[0])
	assert.Equal(t, acmeSummary, row[1])
	assert.Equal(t, "Success", row[2])
	assert.Equal(t, "HIGH", row[5])
	assert.Equal(t, "Manufacturing", row[6])
}

func TestRun_PersistentFailureIsOneErrorRow(t *testing.T) {
	fake := &fakeLLM{
		answers: map[string]string{"Acme Corp": acmeSummary},
		failing: map[string]error{"BadCo": fmt.Errorf("fake: %w: 503", llm.ErrTransient)},
	}
	h := newHarness(t, []string{"BadCo", "Acme Corp"}, fake)

	report, err := h.svc.Run(context.Background(), nil)
	require.NoError(t, err, "a per-company failure must not fail the run")

	assert.Equal(t, RunCompleted, report.Status)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 3, fake.calls["BadCo"], "expected exactly MAX_RETRIES attempts")
	assert.Equal(t, 1, fake.calls["Acme Corp"])

	rows, _ := h.sheet.Sheet("Results")
	require.Len(t, rows, 3)
	assert.Equal(t, "BadCo", rows[1][0])
	assert.Equal(t, "Error", rows[1][2])
	assert.True(t, strings.HasPrefix(rows[1][1], "Error generating summary: "))
	assert.Equal(t, "Success", rows[2][2])
}

func TestRun_ReportCountsUnrecognizedConfidence(t *testing.T) {
	moderate := strings.Replace(acmeSummary, "DATA CONFIDENCE: high", "DATA CONFIDENCE: Moderate", 1)
	fake := &fakeLLM{answers: map[string]string{"Acme Corp": acmeSummary, "Beta LLC": moderate}}
	h := newHarness(t, []string{"Acme Corp", "Beta LLC"}, fake)

	report, err := h.svc.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.UnrecognizedConfidence)

	rows, _ := h.sheet.Sheet("Results")
	require.Len(t, rows, 3)
	assert.Equal(t, "Moderate", rows[2][5])
}

func TestRun_EmptyInputIsDataErrorAndWritesNothing(t *testing.T) {
	h := newHarness(t, nil, &fakeLLM{})

	report, err := h.svc.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
	assert.Equal(t, RunNoCompanies, report.Status)

	_, written := h.sheet.Sheet("Results")
	assert.False(t, written)
	assert.Empty(t, h.llm.calls)
}

func TestRun_InterruptedRunWritesPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeLLM{answers: map[string]string{"A": acmeSummary, "B": acmeSummary, "C": acmeSummary}}
	fake.onPrompt = func(p string) {
		if strings.Contains(p, " B ") {
			cancel()
		}
	}
	h := newHarness(t, []string{"A", "B", "C"}, fake)

	report, err := h.svc.Run(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, RunCancelled, report.Status)
	assert.NotEmpty(t, report.OutputURL)

	rows, ok := h.sheet.Sheet("Results")
	require.True(t, ok)
	require.Len(t, rows, 2, "header plus the one company finished before cancellation")
	assert.Equal(t, "A", rows[1][0])
}

func TestRun_ProgressCallback(t *testing.T) {
	fake := &fakeLLM{answers: map[string]string{"A": acmeSummary, "B": "too short"}}
	h := newHarness(t, []string{"A", "B"}, fake)

	var seen []string
	report, err := h.svc.Run(context.Background(), func(done, total int, name string) {
		seen = append(seen, fmt.Sprintf("%d/%d %s", done, total, name))
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1/2 A", "2/2 B"}, seen)
	assert.Equal(t, 1, report.Warnings)
}

func TestRun_WriteFailure(t *testing.T) {
	fake := &fakeLLM{answers: map[string]string{"A": acmeSummary}}
	h := newHarness(t, []string{"A"}, fake)
	h.sheet.WriteErr = errors.New("quota exceeded")

	report, err := h.svc.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, RunFailed, report.Status)
}
