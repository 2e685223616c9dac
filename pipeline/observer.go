package pipeline

import (
	"context"
	"time"
)

// Resolution tells how a handler invocation settled.
type Resolution int

const (
	// Advanced means the handler forwarded a value to the next stage.
	Advanced Resolution = iota
	// Finished means the handler ended the run with a final value.
	Finished
	// Panicked means the handler panicked before resolving.
	Panicked
)

func (r Resolution) String() string {
	switch r {
	case Advanced:
		return "advanced"
	case Finished:
		return "finished"
	case Panicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Observer provides hooks around runs and handler invocations, e.g. for
// logging or metrics. RunStarted is called on the loop before the first stage
// is scheduled; StageStarted/StageResolved bracket each handler invocation
// (StageResolved may be called from whatever goroutine resolved the stage);
// RunCompleted is called once per run with the settled result or error.
// Hooks must not block.
type Observer interface {
	RunStarted(ctx context.Context, runID, name string, input any)
	StageStarted(ctx context.Context, runID string, stage int, input any)
	StageResolved(ctx context.Context, runID string, stage int, how Resolution, output any, d time.Duration)
	RunCompleted(ctx context.Context, runID string, result any, err error, d time.Duration)
}

// NopObserver implements Observer with no-ops. Embed it to implement only the
// hooks you need.
type NopObserver struct{}

func (NopObserver) RunStarted(context.Context, string, string, any)                           {}
func (NopObserver) StageStarted(context.Context, string, int, any)                            {}
func (NopObserver) StageResolved(context.Context, string, int, Resolution, any, time.Duration) {}
func (NopObserver) RunCompleted(context.Context, string, any, error, time.Duration)            {}

// MultiObserver fans every hook out to each non-nil observer in order.
func MultiObserver(observers ...Observer) Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) RunStarted(ctx context.Context, runID, name string, input any) {
	for _, o := range m {
		o.RunStarted(ctx, runID, name, input)
	}
}

func (m multiObserver) StageStarted(ctx context.Context, runID string, stage int, input any) {
	for _, o := range m {
		o.StageStarted(ctx, runID, stage, input)
	}
}

func (m multiObserver) StageResolved(ctx context.Context, runID string, stage int, how Resolution, output any, d time.Duration) {
	for _, o := range m {
		o.StageResolved(ctx, runID, stage, how, output, d)
	}
}

func (m multiObserver) RunCompleted(ctx context.Context, runID string, result any, err error, d time.Duration) {
	for _, o := range m {
		o.RunCompleted(ctx, runID, result, err, d)
	}
}

// context keys for run metadata
type runMetaKey struct{}

type stageKey struct{}

type runMeta struct {
	RunID, PipelineName string
}

// RunIDFromContext returns the id of the run a handler is executing in.
func RunIDFromContext(ctx context.Context) (string, bool) {
	m, ok := ctx.Value(runMetaKey{}).(runMeta)
	return m.RunID, ok
}

// PipelineNameFromContext returns the name of the pipeline a handler belongs to.
func PipelineNameFromContext(ctx context.Context) (string, bool) {
	m, ok := ctx.Value(runMetaKey{}).(runMeta)
	return m.PipelineName, ok
}

// StageFromContext returns the 0-based index of the executing handler.
func StageFromContext(ctx context.Context) (int, bool) {
	i, ok := ctx.Value(stageKey{}).(int)
	return i, ok
}
