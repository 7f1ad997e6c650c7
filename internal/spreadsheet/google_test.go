package spreadsheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/fleveque/company-summarizer/internal/model"
)

// newTestAPI points a GoogleAPI at an httptest server speaking the Sheets v4 REST shape.
func newTestAPI(t *testing.T, h http.HandlerFunc) *GoogleAPI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	api, err := NewGoogleAPI(context.Background(), "",
		option.WithoutAuthentication(),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("NewGoogleAPI: %v", err)
	}
	return api
}

func TestGoogleAPI_ReadValues(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.Contains(r.URL.Path, "/v4/spreadsheets/sheet-id/values/'Company List'") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"range":"'Company List'!A1:B3","majorDimension":"ROWS","values":[["Company"],["Acme Corp"],["Globex"]]}`)
	})

	rows, err := api.ReadValues(context.Background(), "sheet-id", quoteSheet("Company List"))
	if err != nil {
		t.Fatalf("ReadValues: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "Acme Corp" {
		t.Errorf("unexpected rows %q", rows)
	}
}

func TestGoogleAPI_AddSheetAndWrite(t *testing.T) {
	var written struct {
		Values [][]string `json:"values"`
	}
	var addedTitle, inputOption string

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			var body struct {
				Requests []struct {
					AddSheet struct {
						Properties struct {
							Title string `json:"title"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if len(body.Requests) == 1 {
				addedTitle = body.Requests[0].AddSheet.Properties.Title
			}
			fmt.Fprint(w, `{"spreadsheetId":"sheet-id","replies":[{"addSheet":{"properties":{"sheetId":4242,"title":"Out"}}}]}`)
		case r.Method == http.MethodPut:
			inputOption = r.URL.Query().Get("valueInputOption")
			_ = json.NewDecoder(r.Body).Decode(&written)
			fmt.Fprint(w, `{"spreadsheetId":"sheet-id","updatedRows":2}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	id, err := api.AddSheet(context.Background(), "sheet-id", "Out")
	if err != nil {
		t.Fatalf("AddSheet: %v", err)
	}
	if id != 4242 || addedTitle != "Out" {
		t.Errorf("got id %d title %q", id, addedTitle)
	}

	err = api.WriteValues(context.Background(), "sheet-id", "'Out'!A1", [][]string{{"Company Name"}, {"Acme"}})
	if err != nil {
		t.Fatalf("WriteValues: %v", err)
	}
	if inputOption != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", inputOption)
	}
	if len(written.Values) != 2 || written.Values[1][0] != "Acme" {
		t.Errorf("unexpected written values %q", written.Values)
	}
}

func TestGoogleAPI_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, model.ErrConfiguration},
		{http.StatusUnauthorized, model.ErrConfiguration},
		{http.StatusBadRequest, model.ErrData},
		{http.StatusNotFound, model.ErrData},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"FAILED"}}`, tt.status)
			})

			_, err := api.ReadValues(context.Background(), "sheet-id", "'Company List'")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
