package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/model"
)

// DefaultInputWorksheet is read when no worksheet is configured.
const DefaultInputWorksheet = "Company List"

// headerCandidates are checked for an exact (case-insensitive) match first.
var headerCandidates = []string{"company", "company name", "company_name", "companies", "name"}

// Reader loads the list of company names.
type Reader struct {
	api           API
	spreadsheetID string
	worksheet     string
	logger        *zap.Logger
}

// NewReader creates a Reader for one worksheet.
func NewReader(api API, spreadsheetID, worksheet string, logger *zap.Logger) *Reader {
	if worksheet == "" {
		worksheet = DefaultInputWorksheet
	}
	return &Reader{api: api, spreadsheetID: spreadsheetID, worksheet: worksheet, logger: logger}
}

// ReadCompanyNames returns the non-empty, trimmed values of the company
// column, in sheet order. The first row is the header.
func (r *Reader) ReadCompanyNames(ctx context.Context) ([]string, error) {
	rows, err := r.api.ReadValues(ctx, r.spreadsheetID, quoteSheet(r.worksheet))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: worksheet %q is empty", model.ErrData, r.worksheet)
	}

	col, err := findCompanyColumn(rows[0])
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", r.worksheet, err)
	}
	r.logger.Debug("using company column",
		zap.String("worksheet", r.worksheet),
		zap.String("header", rows[0][col]),
	)

	var names []string
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue // Sheets trims trailing empty cells
		}
		if name := strings.TrimSpace(row[col]); name != "" {
			names = append(names, name)
		}
	}

	r.logger.Info("read company list",
		zap.String("worksheet", r.worksheet),
		zap.Int("companies", len(names)),
	)
	return names, nil
}

// findCompanyColumn prefers an exact header match, then any header mentioning
// "company" or "name". The leftmost column wins within each pass.
func findCompanyColumn(header []string) (int, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, h := range normalized {
		for _, c := range headerCandidates {
			if h == c {
				return i, nil
			}
		}
	}
	for i, h := range normalized {
		if strings.Contains(h, "company") || strings.Contains(h, "name") {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no company column in header %q", model.ErrData, header)
}
