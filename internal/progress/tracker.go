// Package progress keeps a live view of the current run for the status API
// and the console.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fleveque/company-summarizer/internal/model"
)

// Snapshot is a point-in-time copy of a run's progress.
type Snapshot struct {
	Status    string              `json:"status"`
	Total     int                 `json:"total"`
	Completed int                 `json:"completed"`
	Percent   float64             `json:"percent"`
	Current   string              `json:"current,omitempty"`
	Counts    map[model.State]int `json:"counts"`
	Companies []CompanyState      `json:"companies"`
	StartedAt time.Time           `json:"started_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CompanyState is one company's latest state.
type CompanyState struct {
	Name  string      `json:"name"`
	State model.State `json:"state"`
}

// Tracker is fed by the generation stage's callbacks. The generation stage
// writes from one goroutine while HTTP handlers read from others, so every
// access goes through the mutex.
type Tracker struct {
	mu        sync.RWMutex
	now       func() time.Time
	status    string
	total     int
	completed int
	current   string
	order     []string
	states    map[string]model.State
	startedAt time.Time
	updatedAt time.Time
}

// NewTracker returns an idle tracker.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, status: "idle", states: make(map[string]model.State)}
}

// Start resets the tracker for a run over total companies.
func (t *Tracker) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = "running"
	t.total = total
	t.completed = 0
	t.current = ""
	t.order = t.order[:0]
	t.states = make(map[string]model.State, total)
	t.startedAt = t.now()
	t.updatedAt = t.startedAt
}

// OnState records a state transition. Its signature matches generation.StateFunc.
// Duplicate names share one entry, which holds the latest state.
func (t *Tracker) OnState(name string, state model.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[name]; !ok {
		t.order = append(t.order, name)
	}
	t.states[name] = state
	if state == model.StateRequesting {
		t.current = name
	}
	t.updatedAt = t.now()
}

// OnProgress records a finished company. Its signature matches generation.ProgressFunc.
func (t *Tracker) OnProgress(completed, total int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed = completed
	t.total = total
	if t.current == name {
		t.current = ""
	}
	t.updatedAt = t.now()
}

// Finish marks the run as over with the given final status.
func (t *Tracker) Finish(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.current = ""
	t.updatedAt = t.now()
}

// Snapshot returns a copy safe to serialize while the run continues.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Status:    t.status,
		Total:     t.total,
		Completed: t.completed,
		Current:   t.current,
		Counts:    make(map[model.State]int),
		Companies: make([]CompanyState, 0, len(t.order)),
		StartedAt: t.startedAt,
		UpdatedAt: t.updatedAt,
	}
	if t.total > 0 {
		s.Percent = float64(t.completed) / float64(t.total) * 100
	}
	for _, name := range t.order {
		st := t.states[name]
		s.Counts[st]++
		s.Companies = append(s.Companies, CompanyState{Name: name, State: st})
	}
	return s
}

// Line renders the console progress line, e.g. "Processing 3/10 (30.0%) - Acme Corp".
func Line(completed, total int, name string) string {
	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}
	return fmt.Sprintf("Processing %d/%d (%.1f%%) - %s", completed, total, pct, name)
}
