package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Remote is a data source that downloads one dump from a portal URL.
type Remote struct {
	client  *Client
	url     string
	headers http.Header
}

// NewRemote returns a Remote source that fetches url through client.
// A nil client gets a default-configured one.
func NewRemote(client *Client, url string, headers http.Header) *Remote {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Remote{client: client, url: url, headers: headers}
}

// URL returns the portal URL this source downloads from.
func (r *Remote) URL() string { return r.url }

// Open issues a GET for the dump and returns the response body. Any status
// other than 200 is an error; retryable statuses will already have been
// retried by the client.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url, r.headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", r.url, resp.StatusCode)
	}
	return resp.Body, nil
}
