package ingest

import "sync"

// errAgg collects row-level problems without flooding logs: it keeps the
// first few messages verbatim, buckets the rest by message, and counts
// everything.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

func (a *errAgg) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *errAgg) sample() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.first))
	copy(out, a.first)
	return out
}
