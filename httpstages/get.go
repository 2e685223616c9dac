package httpstages

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dcshock/piperline/pipeline"
)

// StatusError is returned when a request completes with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http get %q: status %d", e.URL, e.Code)
}

// Get returns a handler that GETs the fixed url and advances with the
// response body as []byte. The request runs on its own goroutine with the run
// context, so cancelling it aborts the request. If client is nil,
// http.DefaultClient is used.
func Get(client *http.Client, url string) pipeline.Handler {
	return pipeline.Async(func(ctx context.Context, _ any) (any, error) {
		return get(ctx, client, url)
	})
}

// Fetch returns a handler like Get that takes the URL from its input, which
// must be a string.
func Fetch(client *http.Client) pipeline.Handler {
	return pipeline.Async(func(ctx context.Context, input any) (any, error) {
		url, ok := input.(string)
		if !ok {
			return nil, fmt.Errorf("http fetch: input must be URL string, got %T", input)
		}
		return get(ctx, client, url)
	})
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http get: new request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http get %q: read body: %w", url, err)
	}
	return body, nil
}
