// internal/datasource/httpds/client_test.go
//
// These tests exercise the portal download client, focusing on:
//   - Default configuration and TLS settings.
//   - Retry and backoff on transient statuses.
//   - Immediate return on non-retryable statuses.
//   - The Remote source adapter over the client.

package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient_Defaults verifies that NewClient applies sensible defaults
// and sets TLS behavior when no custom Transport is supplied.
func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})

	if c.httpClient.Timeout <= 0 {
		t.Fatalf("expected non-zero timeout, got %v", c.httpClient.Timeout)
	}
	if c.initialBackoff <= 0 {
		t.Fatalf("expected default initialBackoff > 0, got %v", c.initialBackoff)
	}
	if c.maxBackoff <= 0 {
		t.Fatalf("expected default maxBackoff > 0, got %v", c.maxBackoff)
	}

	transport, ok := c.httpClient.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.httpClient.Transport)
	}
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify to be carried into the transport")
	}
}

// TestDo_Success_NoRetry verifies that a 200 returns immediately even when
// retries are allowed.
func TestDo_Success_NoRetry(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     3,
		Timeout:        2 * time.Second,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	})
	c.sleep = func(time.Duration) {}

	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
}

// TestDo_RetryOn5xxThenSuccess verifies retry on 5xx: two 500s then a 200
// should succeed after three requests.
func TestDo_RetryOn5xxThenSuccess(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     3,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(time.Duration) {}

	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 requests (2 failures + 1 success), got %d", got)
	}
}

// TestDo_NonRetryableStatus verifies that a 404 is returned to the caller
// without burning retries.
func TestDo_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     5,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
	})
	c.sleep = func(time.Duration) {}

	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly 1 request for a non-retryable status, got %d", got)
	}
}

// TestDo_RetriesExhausted verifies that a persistent 503 fails with an error
// after the configured attempts.
func TestDo_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     2,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(time.Duration) {}

	_, err := c.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatalf("expected error after retries exhausted")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

// TestBackoffDuration verifies exponential growth and clamping.
func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{"first retry", 100 * time.Millisecond, 0, time.Second, 100 * time.Millisecond},
		{"second retry doubles", 100 * time.Millisecond, 1, time.Second, 200 * time.Millisecond},
		{"clamped to max", 100 * time.Millisecond, 5, time.Second, time.Second},
		{"initial above max", 2 * time.Second, 0, time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backoffDuration(tt.initial, tt.attempt, tt.max); got != tt.want {
				t.Fatalf("backoffDuration(%v, %d, %v) = %v, want %v", tt.initial, tt.attempt, tt.max, got, tt.want)
			}
		})
	}
}

// TestRemote_Open verifies that the Remote source returns the dump body on
// 200 and an error on any other final status.
func TestRemote_Open(t *testing.T) {
	t.Parallel()

	const payload = "Scheme_ID,District\nMH-1,Pune\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.csv") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	c := NewClient(Config{Timeout: 2 * time.Second})
	c.sleep = func(time.Duration) {}

	rc, err := NewRemote(c, srv.URL+"/dump.csv", nil).Open(context.Background())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != payload {
		t.Fatalf("body mismatch: got %q, want %q", body, payload)
	}

	if _, err := NewRemote(c, srv.URL+"/missing.csv", nil).Open(context.Background()); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}
