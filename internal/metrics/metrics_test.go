package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New() // must not panic on duplicate registration

	a.Results.WithLabelValues("success").Inc()

	if got := testutil.ToFloat64(a.Results.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(b.Results.WithLabelValues("success")); got != 0 {
		t.Errorf("registries should not share state, got %v", got)
	}
}

func TestNew_Gatherable(t *testing.T) {
	m := New()
	m.CompletionAttempts.WithLabelValues("openai", "success").Inc()
	m.CompaniesTotal.Set(3)

	n, err := testutil.GatherAndCount(m.Registry, "summarizer_completion_attempts_total", "summarizer_companies_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 series, got %d", n)
	}
}
