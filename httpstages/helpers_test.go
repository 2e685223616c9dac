package httpstages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dcshock/piperline/pipeline"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, input any, handlers ...pipeline.Handler) (any, error) {
	t.Helper()
	p, err := pipeline.New(handlers, pipeline.WithName("http-test"))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := p.RunWait(ctx, input)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "run did not settle")
	return out, err
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}
