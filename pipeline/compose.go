package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Resolver settles a handler invocation with a value.
type Resolver func(result any)

// Handler is a single step in a pipeline. It receives the previous step's
// output and must call exactly one of advance (pass result to the next
// handler) or finish (end the run with result). Only the first call to either
// takes effect; later calls are ignored. Both may be called from any
// goroutine, at any later time. Passing an error to either, or panicking, fails
// the run and skips every remaining handler.
//
// Handlers run on the pipeline's Loop and must not block; do slow work on
// another goroutine and resolve from there (see Async).
type Handler func(ctx context.Context, input any, advance, finish Resolver)

// Assembly is a handler sequence composed into one callable. complete is
// called exactly once with the run's final value.
type Assembly func(ctx context.Context, input any, complete Resolver)

// Compose builds the assembly for handlers on loop. The handler slice is read
// once; later changes to it do not affect the returned Assembly. A nil loop
// means DefaultLoop.
func Compose(loop *Loop, handlers []Handler) Assembly {
	if loop == nil {
		loop = DefaultLoop()
	}
	return composer{loop: loop, log: zerolog.Nop()}.compose(handlers)
}

type composer struct {
	loop *Loop
	obs  Observer
	log  zerolog.Logger
}

// compose folds handlers from last to first around the terminal segment.
func (c composer) compose(handlers []Handler) Assembly {
	asm := Assembly(func(_ context.Context, input any, complete Resolver) {
		complete(input)
	})
	for i := len(handlers) - 1; i >= 0; i-- {
		asm = c.stage(i, handlers[i], asm)
	}
	return asm
}

func (c composer) stage(idx int, h Handler, next Assembly) Assembly {
	return func(ctx context.Context, input any, complete Resolver) {
		if IsError(input) {
			complete(input)
			return
		}
		c.loop.Defer(func() {
			c.invoke(ctx, idx, h, input, next, complete)
		})
	}
}

func (c composer) invoke(ctx context.Context, idx int, h Handler, input any, next Assembly, complete Resolver) {
	runID, _ := RunIDFromContext(ctx)
	stageCtx := context.WithValue(ctx, stageKey{}, idx)
	start := time.Now()

	var resolved atomic.Bool
	settle := func(how Resolution, out any) bool {
		if !resolved.CompareAndSwap(false, true) {
			return false
		}
		if c.obs != nil {
			d := time.Since(start)
			c.observe("StageResolved", runID, idx, func() { c.obs.StageResolved(ctx, runID, idx, how, out, d) })
		}
		return true
	}
	advance := func(result any) {
		if settle(Advanced, result) {
			next(ctx, result, complete)
		}
	}
	finish := func(result any) {
		if settle(Finished, result) {
			complete(result)
		}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		herr := &HandlerError{Stage: idx, Value: r}
		if !settle(Panicked, herr) {
			c.log.Warn().Err(herr).Str("run_id", runID).Msg("handler panicked after resolving")
			return
		}
		complete(herr)
	}()

	if c.obs != nil {
		c.observe("StageStarted", runID, idx, func() { c.obs.StageStarted(stageCtx, runID, idx, input) })
	}
	h(stageCtx, input, advance, finish)
}

// observe calls a stage hook. A panicking hook is logged and never reaches the
// handler or its resolvers.
func (c composer) observe(hook, runID string, idx int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Err(fromPanicValue(r)).Str("run_id", runID).Int("stage", idx).Msg("observer " + hook + " panicked")
		}
	}()
	fn()
}
