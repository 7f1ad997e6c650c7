// Package spreadsheet reads company names from, and writes results to,
// a Google Sheets spreadsheet.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/fleveque/company-summarizer/internal/model"
)

// API is the slice of the Sheets API this package uses. GoogleAPI is the
// real implementation; tests substitute an in-memory fake.
type API interface {
	ReadValues(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) (int64, error)
	WriteValues(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error
}

// GoogleAPI talks to the Sheets v4 REST API.
type GoogleAPI struct {
	svc *sheetsapi.Service
}

// NewGoogleAPI authenticates with a service-account credentials file.
// Extra options are appended, which lets tests point at an httptest server.
func NewGoogleAPI(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*GoogleAPI, error) {
	all := make([]option.ClientOption, 0, len(opts)+2)
	if credentialsFile != "" {
		all = append(all,
			option.WithCredentialsFile(credentialsFile),
			option.WithScopes(sheetsapi.SpreadsheetsScope),
		)
	}
	all = append(all, opts...)

	svc, err := sheetsapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating sheets client: %w", model.ErrConfiguration, err)
	}
	return &GoogleAPI{svc: svc}, nil
}

func (g *GoogleAPI) ReadValues(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Sprintf("reading %s", a1Range), err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

func (g *GoogleAPI) AddSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}
	resp, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, classify(fmt.Sprintf("adding worksheet %q", title), err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("adding worksheet %q: empty reply", title)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (g *GoogleAPI) WriteValues(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, a1Range, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify(fmt.Sprintf("writing %s", a1Range), err)
	}
	return nil
}

// classify maps auth failures to configuration errors and a bad range or
// unknown spreadsheet to data errors.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: %w", model.ErrConfiguration, op, err)
		case http.StatusBadRequest, http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", model.ErrData, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// quoteSheet renders a worksheet title for A1 notation: 'It''s here'.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
