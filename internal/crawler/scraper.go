// Package crawler provides the shared JSON fetch utility used by every source adapter.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"blueduck/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrDecodeResponse       = errors.New("failed to decode JSON response")
)

const (
	// DefaultTimeout bounds a request when the call site does not override it.
	DefaultTimeout = 20 * time.Second

	defaultMaxBodyKb = 4096
	maxErrorExcerpt  = 200
)

// Options adjusts a single request.
type Options struct {
	Headers map[string]string
	Timeout time.Duration
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	Body       string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
	}

	return fmt.Sprintf("HTTP %d for %s :: %s", e.StatusCode, e.URL, e.Body)
}

// Unwrap lets errors.Is match ErrUnexpectedStatusCode.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

// Fetcher performs bounded, single-attempt JSON GET requests.
// It holds no per-request state and is safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	headers      *utils.HTTPHelper
	bufferSizeKb int
}

// NewFetcher creates a fetcher with default settings.
func NewFetcher() *Fetcher {
	return NewFetcherWithConfig(nil, "", defaultMaxBodyKb)
}

// NewFetcherWithConfig creates a fetcher around client (nil selects a fresh
// client) with the given default User-Agent and response size cap.
func NewFetcherWithConfig(client *http.Client, userAgent string, bufferSizeKb int) *Fetcher {
	if client == nil {
		// Per-request deadlines come from the context, not the client.
		client = &http.Client{}
	}

	if bufferSizeKb <= 0 {
		bufferSizeKb = defaultMaxBodyKb
	}

	return &Fetcher{
		client:       client,
		headers:      utils.NewHTTPHelper(userAgent),
		bufferSizeKb: bufferSizeKb,
	}
}

// FetchJSON issues a GET to url and decodes the JSON body into out.
// The request is cancelled when opts.Timeout (or DefaultTimeout) elapses.
// The body is only checked for being valid JSON; callers must tolerate
// missing or wrongly typed fields.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, opts Options, out any) (err error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = f.headers.BuildHeaders(opts.Headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	limit := int64(f.bufferSizeKb) * 1024
	reader := io.LimitReader(resp.Body, limit)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best effort: the excerpt is diagnostic only.
		excerpt, _ := io.ReadAll(io.LimitReader(reader, maxErrorExcerpt*4))

		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       utils.TruncateRunes(string(excerpt), maxErrorExcerpt),
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w from %s: %w", ErrDecodeResponse, url, err)
	}

	return nil
}

// FetchJSON is the typed form of Fetcher.FetchJSON.
func FetchJSON[T any](ctx context.Context, f *Fetcher, url string, opts Options) (T, error) {
	var out T
	err := f.FetchJSON(ctx, url, opts, &out)

	return out, err
}
