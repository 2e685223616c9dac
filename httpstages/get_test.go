package httpstages

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dcshock/piperline/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"status":"ok"}`)

	out, err := run(t, nil, Get(nil, ts.URL))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"status":"ok"}`), out)
}

func TestGet_Non2xx(t *testing.T) {
	ts := serve(t, http.StatusNotFound, "")

	_, err := run(t, nil, Get(ts.Client(), ts.URL))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, ts.URL, statusErr.URL)
}

func TestGet_ResolvesAfterRunReturns(t *testing.T) {
	ts := serve(t, http.StatusOK, "x")
	p := pipeline.MustNew([]pipeline.Handler{Get(nil, ts.URL)})

	done := make(chan any, 1)
	p.Run(nil, func(err error, result any) { done <- result })
	assert.True(t, p.IsRunning())

	select {
	case out := <-done:
		assert.Equal(t, []byte("x"), out)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not settle")
	}
	assert.Eventually(t, func() bool { return !p.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestGet_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-block:
		}
	}))
	defer ts.Close()
	defer close(block)

	p := pipeline.MustNew([]pipeline.Handler{Get(nil, ts.URL)})
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	p.RunContext(ctx, nil, func(err error, _ any) { errs <- err })
	cancel()

	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not settle")
	}
}

func TestFetch(t *testing.T) {
	ts := serve(t, http.StatusOK, "body")

	out, err := run(t, ts.URL, Fetch(nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), out)
}

func TestFetch_InputNotString(t *testing.T) {
	_, err := run(t, 123, Fetch(nil))
	assert.ErrorContains(t, err, "input must be URL string, got int")
}
