package spreadsheet

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/clock"
	"github.com/fleveque/company-summarizer/internal/model"
)

// MaxCellLength is the Google Sheets per-cell character limit.
const MaxCellLength = 50000

// TimestampLayout is used for the Timestamp column and default sheet titles.
const TimestampLayout = "2006-01-02 15:04:05"

// Columns is the output header row.
var Columns = []string{
	"Company Name",
	"Summary",
	"Processing Status",
	"Timestamp",
	"Error Message",
	"Data Confidence",
	"Industry",
	"Key Activities",
	"Target Market",
	"Business Model",
}

// Writer creates a fresh worksheet per run and fills it with results.
type Writer struct {
	api           API
	spreadsheetID string
	worksheet     string // empty means "Company Summaries <timestamp>"
	clock         clock.Clock
	logger        *zap.Logger
}

// NewWriter creates a Writer. clk may be nil for the wall clock.
func NewWriter(api API, spreadsheetID, worksheet string, clk clock.Clock, logger *zap.Logger) *Writer {
	if clk == nil {
		clk = clock.New()
	}
	return &Writer{
		api:           api,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		clock:         clk,
		logger:        logger,
	}
}

// WriteResults adds a worksheet, writes the header and one row per result,
// and returns a link to the new worksheet.
func (w *Writer) WriteResults(ctx context.Context, results []model.CompanyResult) (string, error) {
	title := w.worksheet
	if title == "" {
		title = "Company Summaries " + w.clock.Now().Format(TimestampLayout)
	}

	sheetID, err := w.api.AddSheet(ctx, w.spreadsheetID, title)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, Columns)
	for _, r := range results {
		rows = append(rows, w.row(r))
	}

	if err := w.api.WriteValues(ctx, w.spreadsheetID, quoteSheet(title)+"!A1", rows); err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", w.spreadsheetID, sheetID)
	w.logger.Info("wrote results",
		zap.String("worksheet", title),
		zap.Int("rows", len(results)),
		zap.String("url", url),
	)
	return url, nil
}

func (w *Writer) row(r model.CompanyResult) []string {
	cells := []string{
		r.CompanyName,
		r.Summary,
		r.Status.Label(),
		r.Timestamp.Format(TimestampLayout),
		r.ErrorMessage,
	}
	for _, f := range model.MetadataFields {
		v, _ := r.Metadata.Value(f)
		cells = append(cells, v)
	}

	for i, c := range cells {
		if utf8.RuneCountInString(c) > MaxCellLength {
			w.logger.Warn("truncating cell",
				zap.String("company", r.CompanyName),
				zap.String("column", Columns[i]),
			)
			cells[i] = truncate(c, MaxCellLength)
		}
	}
	return cells
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
