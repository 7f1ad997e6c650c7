// Package spreadsheettest provides an in-memory spreadsheet for tests.
package spreadsheettest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fleveque/company-summarizer/internal/model"
)

// Memory implements spreadsheet.API over a map of worksheets keyed by title.
// Only whole-sheet ranges ('Title' or 'Title'!A1) are supported.
type Memory struct {
	mu       sync.Mutex
	sheets   map[string][][]string
	ids      map[string]int64
	nextID   int64
	AddErr   error // returned by AddSheet when set
	WriteErr error // returned by WriteValues when set
}

// NewMemory returns an empty spreadsheet.
func NewMemory() *Memory {
	return &Memory{
		sheets: make(map[string][][]string),
		ids:    make(map[string]int64),
		nextID: 1000,
	}
}

// SetSheet replaces a worksheet's contents.
func (m *Memory) SetSheet(title string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[title] = rows
	if _, ok := m.ids[title]; !ok {
		m.ids[title] = m.nextID
		m.nextID++
	}
}

// Sheet returns a worksheet's rows and whether it exists.
func (m *Memory) Sheet(title string) ([][]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[title]
	return rows, ok
}

// Titles lists every worksheet.
func (m *Memory) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sheets))
	for t := range m.sheets {
		out = append(out, t)
	}
	return out
}

func (m *Memory) ReadValues(_ context.Context, _ string, a1Range string) ([][]string, error) {
	title := sheetTitle(a1Range)
	rows, ok := m.Sheet(title)
	if !ok {
		return nil, fmt.Errorf("%w: unable to parse range: %s", model.ErrData, a1Range)
	}
	return rows, nil
}

func (m *Memory) AddSheet(_ context.Context, _ string, title string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	if _, exists := m.sheets[title]; exists {
		return 0, fmt.Errorf("%w: a sheet with the name %q already exists", model.ErrData, title)
	}
	id := m.nextID
	m.nextID++
	m.sheets[title] = nil
	m.ids[title] = id
	return id, nil
}

func (m *Memory) WriteValues(_ context.Context, _ string, a1Range string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	title := sheetTitle(a1Range)
	if _, ok := m.sheets[title]; !ok {
		return fmt.Errorf("%w: unable to parse range: %s", model.ErrData, a1Range)
	}
	m.sheets[title] = rows
	return nil
}

// sheetTitle strips quoting and any cell reference from an A1 range.
func sheetTitle(a1 string) string {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[:i]
	}
	if len(a1) >= 2 && strings.HasPrefix(a1, "'") && strings.HasSuffix(a1, "'") {
		a1 = strings.ReplaceAll(a1[1:len(a1)-1], "''", "'")
	}
	return a1
}
