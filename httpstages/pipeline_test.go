package httpstages

import (
	"net/http"
	"testing"

	"github.com/dcshock/piperline/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_GetParseExpect(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"status":"ok","version":1}`)

	out, err := run(t, nil,
		Get(nil, ts.URL),
		ParseJSON().Handler(),
		Expect(statusOK),
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok", "version": float64(1)}, out)
}

func TestPipeline_GetParseExpect_Fail(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"status":"error"}`)
	reached := false

	_, err := run(t, nil,
		Get(nil, ts.URL),
		ParseJSON().Handler(),
		Expect(statusOK),
		pipeline.Func(func(v any) any { reached = true; return v }),
	)
	assert.ErrorContains(t, err, "status not ok")
	assert.True(t, pipeline.IsValidationError(err))
	var verr *pipeline.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Stage)
	assert.False(t, reached, "handlers after a failed stage do not run")
}

func TestPipeline_FetchJSONPath(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"status":"ok"}`)

	out, err := run(t, ts.URL,
		Fetch(ts.Client()),
		JSONPath("status").Handler(),
		ExpectEqual("ok"),
	)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestPipeline_StatusErrorStopsRun(t *testing.T) {
	ts := serve(t, http.StatusInternalServerError, "")
	_, err := run(t, nil, Get(nil, ts.URL), ParseJSON().Handler())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}
