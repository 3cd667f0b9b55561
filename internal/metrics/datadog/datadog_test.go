package datadog

import (
	"sort"
	"testing"

	"github.com/shiv0924/jjm-platform/internal/metrics"
)

func TestNewBackend_AddrRequired(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{})
	if err == nil {
		t.Fatalf("NewBackend(Config{}) error = nil, want non-nil")
	}
	if b != nil {
		t.Fatalf("NewBackend(Config{}) backend = %v, want nil", b)
	}
}

// A zero-value Backend has no client; every method must be a safe no-op.
func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("jjm_stage_total", 1, metrics.Labels{"stage": "ingest"})
	b.ObserveHistogram("jjm_stage_duration_seconds", 0.5, metrics.Labels{"stage": "ingest"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() on nil client error = %v, want nil", err)
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v, want nil", got)
	}
	if got := labelsToTags(metrics.Labels{}); got != nil {
		t.Fatalf("labelsToTags(empty) = %v, want nil", got)
	}

	got := labelsToTags(metrics.Labels{
		"stage":  "persist",
		"status": "success",
	})
	sort.Strings(got)
	want := []string{"stage:persist", "status:success"}
	if len(got) != len(want) {
		t.Fatalf("labelsToTags returned %d tags, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labelsToTags()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
