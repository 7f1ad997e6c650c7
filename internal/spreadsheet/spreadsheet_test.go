package spreadsheet

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/model"
	"github.com/fleveque/company-summarizer/internal/spreadsheet/spreadsheettest"
)

var _ API = (*spreadsheettest.Memory)(nil)

func TestReadCompanyNames(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want []string
	}{
		{
			name: "exact header",
			rows: [][]string{{"Company"}, {"Acme Corp"}, {"Globex"}},
			want: []string{"Acme Corp", "Globex"},
		},
		{
			name: "exact match beats earlier fuzzy match",
			rows: [][]string{{"Company ID", "Name"}, {"1", "Acme Corp"}},
			want: []string{"Acme Corp"},
		},
		{
			name: "fuzzy header",
			rows: [][]string{{"Notes", "Target Company"}, {"x", "Initech"}},
			want: []string{"Initech"},
		},
		{
			name: "trims and drops empties",
			rows: [][]string{{"company_name"}, {"  Acme Corp  "}, {""}, {"   "}, {"Globex"}},
			want: []string{"Acme Corp", "Globex"},
		},
		{
			name: "short rows",
			rows: [][]string{{"Notes", "Company"}, {"only notes"}, {"n", "Acme"}},
			want: []string{"Acme"},
		},
		{
			name: "header only",
			rows: [][]string{{"Companies"}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := spreadsheettest.NewMemory()
			mem.SetSheet(DefaultInputWorksheet, tt.rows)

			got, err := NewReader(mem, "sheet-id", "", zap.NewNop()).ReadCompanyNames(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadCompanyNames_DataErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"empty sheet", nil},
		{"no plausible column", [][]string{{"Ticker", "Price"}, {"ACME", "10"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := spreadsheettest.NewMemory()
			mem.SetSheet(DefaultInputWorksheet, tt.rows)

			_, err := NewReader(mem, "sheet-id", "", zap.NewNop()).ReadCompanyNames(context.Background())
			if !errors.Is(err, model.ErrData) {
				t.Errorf("expected data error, got %v", err)
			}
		})
	}
}

func TestReadCompanyNames_MissingWorksheet(t *testing.T) {
	mem := spreadsheettest.NewMemory()

	_, err := NewReader(mem, "sheet-id", "Elsewhere", zap.NewNop()).ReadCompanyNames(context.Background())
	if !errors.Is(err, model.ErrData) {
		t.Errorf("expected data error, got %v", err)
	}
}

func sampleResults(at time.Time) []model.CompanyResult {
	var md model.Metadata
	md.Set(model.FieldIndustry, "Manufacturing")
	md.Set(model.FieldDataConfidence, model.ConfidenceHigh)

	return []model.CompanyResult{
		{CompanyName: "Acme Corp", Summary: "COMPANY OVERVIEW: ...", Status: model.StatusSuccess, Timestamp: at, Metadata: md},
		{CompanyName: "BadCo", Summary: "Error generating summary: boom", Status: model.StatusError, ErrorMessage: "boom", Timestamp: at},
	}
}

func TestWriteResults(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	mem := spreadsheettest.NewMemory()
	w := NewWriter(mem, "sheet-id", "", clock.NewFake(at), zap.NewNop())

	url, err := w.WriteResults(context.Background(), sampleResults(at))
	if err != nil {
		t.Fatalf("WriteResults: %v", err)
	}

	if !strings.HasPrefix(url, "https://docs.google.com/spreadsheets/d/sheet-id/edit#gid=") {
		t.Errorf("unexpected url %q", url)
	}

	rows, ok := mem.Sheet("Company Summaries 2026-03-01 09:30:00")
	if !ok {
		t.Fatalf("worksheet not created, have %v", mem.Titles())
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], "|") != strings.Join(Columns, "|") {
		t.Errorf("unexpected header %q", rows[0])
	}

	acme := rows[1]
	want := []string{"Acme Corp", "COMPANY OVERVIEW: ...", "Success", "2026-03-01 09:30:00", "", "HIGH", "Manufacturing", "", "", ""}
	if strings.Join(acme, "|") != strings.Join(want, "|") {
		t.Errorf("acme row = %q, want %q", acme, want)
	}

	bad := rows[2]
	if bad[2] != "Error" || bad[4] != "boom" {
		t.Errorf("unexpected error row %q", bad)
	}
}

func TestWriteResults_ConfiguredTitleAndTruncation(t *testing.T) {
	mem := spreadsheettest.NewMemory()
	w := NewWriter(mem, "sheet-id", "Bob's Results", nil, zap.NewNop())

	long := strings.Repeat("é", MaxCellLength+10)
	_, err := w.WriteResults(context.Background(), []model.CompanyResult{
		{CompanyName: "Acme", Summary: long, Status: model.StatusWarning, Timestamp: time.Now()},
	})
	if err != nil {
		t.Fatalf("WriteResults: %v", err)
	}

	rows, ok := mem.Sheet("Bob's Results")
	if !ok {
		t.Fatalf("worksheet not created, have %v", mem.Titles())
	}
	if n := len([]rune(rows[1][1])); n != MaxCellLength {
		t.Errorf("summary has %d characters, want %d", n, MaxCellLength)
	}
}

func TestWriteResults_PropagatesErrors(t *testing.T) {
	mem := spreadsheettest.NewMemory()
	mem.WriteErr = errors.New("quota exceeded")

	_, err := NewWriter(mem, "sheet-id", "Out", nil, zap.NewNop()).WriteResults(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected write error, got %v", err)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's List"); got != "'Bob''s List'" {
		t.Errorf("got %s", got)
	}
}
