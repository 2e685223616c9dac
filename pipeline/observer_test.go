package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookObserver records hook calls for tests.
type hookObserver struct {
	mu    sync.Mutex
	order []string
	id    string
}

func (h *hookObserver) add(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, s)
}

func (h *hookObserver) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

func (h *hookObserver) runID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

func (h *hookObserver) RunStarted(_ context.Context, runID, name string, _ any) {
	h.mu.Lock()
	h.id = runID
	h.mu.Unlock()
	h.add("RunStarted:" + name)
}

func (h *hookObserver) StageStarted(_ context.Context, _ string, stage int, _ any) {
	h.add(fmt.Sprintf("StageStarted:%d", stage))
}

func (h *hookObserver) StageResolved(_ context.Context, _ string, stage int, how Resolution, _ any, _ time.Duration) {
	h.add(fmt.Sprintf("StageResolved:%d:%s", stage, how))
}

func (h *hookObserver) RunCompleted(context.Context, string, any, error, time.Duration) {
	h.add("RunCompleted")
}

func TestMultiObserver_FansOutAndSkipsNil(t *testing.T) {
	a, b := &hookObserver{}, &hookObserver{}
	m := MultiObserver(a, nil, b)
	ctx := context.Background()

	m.RunStarted(ctx, "r1", "multi", nil)
	m.StageStarted(ctx, "r1", 0, nil)
	m.StageResolved(ctx, "r1", 0, Panicked, nil, time.Millisecond)
	m.RunCompleted(ctx, "r1", nil, nil, time.Millisecond)

	want := []string{"RunStarted:multi", "StageStarted:0", "StageResolved:0:panicked", "RunCompleted"}
	assert.Equal(t, want, a.snapshot())
	assert.Equal(t, want, b.snapshot())
}

func TestResolution_String(t *testing.T) {
	assert.Equal(t, "advanced", Advanced.String())
	assert.Equal(t, "finished", Finished.String())
	assert.Equal(t, "panicked", Panicked.String())
	assert.Equal(t, "unknown", Resolution(42).String())
}

func TestNopObserver(t *testing.T) {
	var obs Observer = NopObserver{}
	assert.NotPanics(t, func() {
		obs.RunStarted(context.Background(), "", "", nil)
		obs.RunCompleted(context.Background(), "", nil, nil, 0)
	})
}

func TestRunIDFromContext_Missing(t *testing.T) {
	_, ok := RunIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = StageFromContext(context.Background())
	assert.False(t, ok)
}

// panickyObserver panics from the stage hooks selected by its fields.
type panickyObserver struct {
	NopObserver
	onStart, onResolve bool
}

func (o panickyObserver) StageStarted(context.Context, string, int, any) {
	if o.onStart {
		panic("stage started hook")
	}
}

func (o panickyObserver) StageResolved(context.Context, string, int, Resolution, any, time.Duration) {
	if o.onResolve {
		panic("stage resolved hook")
	}
}

func TestPipeline_PanickingStageHooks(t *testing.T) {
	finishLast := func(_ context.Context, v any, _, finish Resolver) { finish(v.(int) + 1) }
	asyncAdd := Async(func(_ context.Context, v any) (any, error) { return v.(int) + 1, nil })

	cases := []struct {
		name     string
		obs      panickyObserver
		handlers []Handler
		logged   string
	}{
		{"resolved sync", panickyObserver{onResolve: true}, []Handler{add(1), add(1)}, "observer StageResolved panicked"},
		{"resolved from goroutine", panickyObserver{onResolve: true}, []Handler{addLater(1), asyncAdd}, "observer StageResolved panicked"},
		{"resolved by finish", panickyObserver{onResolve: true}, []Handler{add(1), finishLast}, "observer StageResolved panicked"},
		{"started", panickyObserver{onStart: true}, []Handler{add(1), asyncAdd}, "observer StageStarted panicked"},
		{"both", panickyObserver{onStart: true, onResolve: true}, []Handler{addLater(1), finishLast}, "observer StageStarted panicked"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := MustNew(tc.handlers, WithObserver(tc.obs), WithLogger(zerolog.New(&buf)), WithLoop(NewLoop(nopLog)))

			out, err := runWait(t, p, 0)
			require.NoError(t, err, "hook panics do not fail the run")
			assert.Equal(t, 2, out)
			assert.False(t, p.IsRunning())
			assert.NoError(t, p.Pipe(add(1)))
			assert.Equal(t, 2, strings.Count(buf.String(), tc.logged))
			assert.NotContains(t, buf.String(), "handler panicked after resolving")
		})
	}
}
