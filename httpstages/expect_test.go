package httpstages

import (
	"context"
	"errors"
	"testing"

	"github.com/dcshock/piperline/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusOK(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return errors.New("not a map")
	}
	if m["status"] != "ok" {
		return errors.New("status not ok")
	}
	return nil
}

// call invokes h directly and returns the resolver it used.
func call(h pipeline.Handler, input any) (advanced bool, out any) {
	h(context.Background(), input,
		func(v any) { advanced, out = true, v },
		func(v any) { out = v },
	)
	return advanced, out
}

func TestExpect(t *testing.T) {
	in := map[string]any{"status": "ok"}
	advanced, out := call(Expect(statusOK), in)
	assert.True(t, advanced)
	assert.Equal(t, in, out)
}

func TestExpect_Fail(t *testing.T) {
	nope := errors.New("nope")
	advanced, out := call(Expect(func(any) error { return nope }), "x")
	assert.False(t, advanced)
	err, ok := out.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, nope)

	var verr *pipeline.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "x", verr.Input)
}

func TestExpect_NilPredicate(t *testing.T) {
	assert.Panics(t, func() { Expect(nil) })
}

func TestExpectEqual(t *testing.T) {
	in := map[string]any{"a": float64(1)}
	advanced, out := call(ExpectEqual(map[string]any{"a": float64(1)}), in)
	assert.True(t, advanced)
	assert.Equal(t, in, out)

	advanced, out = call(ExpectEqual("expected"), "other")
	assert.False(t, advanced)
	assert.EqualError(t, out.(error), "pipeline: handler 0 rejected input: got other, want expected")
}
