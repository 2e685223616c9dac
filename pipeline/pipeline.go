package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Callback receives the settled value of one run: err is nil on success, and
// result is nil on failure.
type Callback func(err error, result any)

// Pipeline runs an ordered list of handlers (handler1 | handler2 | ...). Each
// handler's advanced value is the next handler's input; any handler may finish
// the run early.
//
// Handlers are append-only and can only be added while no run is in flight.
// Runs may overlap: each has its own resolution state and they share the
// cached assembly. A Pipeline is safe for concurrent use.
type Pipeline struct {
	opts options
	hub  *hub

	mu       sync.Mutex
	handlers []Handler
	asm      Assembly // nil when stale
	inFlight int
}

// New returns a pipeline seeded with handlers. It fails with ErrInvalidHandler
// if any handler is nil.
func New(handlers []Handler, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.loop == nil {
		o.loop = DefaultLoop()
	}
	p := &Pipeline{opts: o, hub: newHub(o.log)}
	for i, h := range handlers {
		if err := p.Pipe(h); err != nil {
			return nil, fmt.Errorf("handler %d: %w", i, err)
		}
	}
	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(handlers []Handler, opts ...Option) *Pipeline {
	p, err := New(handlers, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the name set with WithName.
func (p *Pipeline) Name() string { return p.opts.name }

// Len returns the number of registered handlers.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// Pipe appends h. It returns ErrInvalidHandler for a nil handler and ErrBusy
// while any run is in flight.
func (p *Pipeline) Pipe(h Handler) error {
	if h == nil {
		return ErrInvalidHandler
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight > 0 {
		return ErrBusy
	}
	p.handlers = append(p.handlers, h)
	p.asm = nil
	return nil
}

// MustPipe is like Pipe but panics on error. It returns p for chaining.
func (p *Pipeline) MustPipe(h Handler) *Pipeline {
	if err := p.Pipe(h); err != nil {
		panic(err)
	}
	return p
}

// IsRunning reports whether any run is in flight. It is true as soon as Run
// returns and false inside the callback of the last run to settle.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight > 0
}

// Run starts a run with input and returns immediately; no handler executes
// before Run returns. cb, if non-nil, is called exactly once when the run
// settles. When cb is nil and input is itself a Callback (or a
// func(error, any)), it is used as the callback and the input is nil.
func (p *Pipeline) Run(input any, cb Callback) *Pipeline {
	return p.RunContext(context.Background(), input, cb)
}

// RunContext is like Run but hands ctx (carrying the run id) to every handler.
// The pipeline does not act on ctx cancellation; handlers may.
func (p *Pipeline) RunContext(ctx context.Context, input any, cb Callback) *Pipeline {
	if cb == nil {
		switch fn := input.(type) {
		case Callback:
			cb, input = fn, nil
		case func(error, any):
			cb, input = fn, nil
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{
		id:       uuid.NewString(),
		callback: cb,
		started:  time.Now(),
	}
	r.ctx = context.WithValue(ctx, runMetaKey{}, runMeta{RunID: r.id, PipelineName: p.opts.name})

	p.mu.Lock()
	p.inFlight++
	first := p.inFlight == 1
	if p.asm == nil {
		p.asm = composer{loop: p.opts.loop, obs: p.opts.observer, log: p.opts.log}.compose(p.handlers)
	}
	asm := p.asm
	p.mu.Unlock()

	loop := p.opts.loop
	complete := func(result any) {
		loop.Defer(func() { p.settle(r, result) })
	}
	loop.Defer(func() {
		if first {
			p.hub.emit(EventRun, nil)
		}
		p.opts.log.Debug().Str("pipeline", p.opts.name).Str("run_id", r.id).Msg("run started")
		if err := p.safely("observer", func() {
			if p.opts.observer != nil {
				p.opts.observer.RunStarted(r.ctx, r.id, p.opts.name, input)
			}
		}); err != nil {
			complete(err)
			return
		}
		asm(r.ctx, input, complete)
	})
	return p
}

// RunWait starts a run and blocks until it settles or ctx is done. A done ctx
// only stops the wait; the run itself keeps going.
func (p *Pipeline) RunWait(ctx context.Context, input any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan Outcome, 1)
	p.RunContext(ctx, input, func(err error, result any) {
		ch <- Outcome{Err: err, Result: result}
	})
	select {
	case o := <-ch:
		return o.Result, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Clone returns a new idle pipeline with a copy of the handler list and the
// same options. Listeners are not copied.
func (p *Pipeline) Clone() *Pipeline {
	p.mu.Lock()
	handlers := slices.Clone(p.handlers)
	p.mu.Unlock()
	return &Pipeline{opts: p.opts, hub: newHub(p.opts.log), handlers: handlers}
}

// On registers a persistent listener for e.
func (p *Pipeline) On(e Event, fn Listener) ListenerID { return p.hub.add(e, fn, false) }

// Once registers a listener for e that is removed after its first call.
func (p *Pipeline) Once(e Event, fn Listener) ListenerID { return p.hub.add(e, fn, true) }

// Off removes the listener with id from e. It reports whether it was found.
func (p *Pipeline) Off(e Event, id ListenerID) bool { return p.hub.remove(e, id) }

// ListenerCount returns the number of listeners registered for e.
func (p *Pipeline) ListenerCount(e Event) int { return p.hub.count(e) }

// run is the per-run state; it is identified by its callback, the id is only
// for logs and hooks.
type run struct {
	id       string
	ctx      context.Context
	callback Callback
	started  time.Time
	settled  atomic.Bool
}

// settle normalizes the final value of r and reports it. It runs on the loop.
func (p *Pipeline) settle(r *run, result any) {
	if !r.settled.CompareAndSwap(false, true) {
		return
	}
	err := errorOf(result)
	data := result
	if err != nil {
		data = nil
	}

	p.mu.Lock()
	p.inFlight--
	idle := p.inFlight == 0
	p.mu.Unlock()

	d := time.Since(r.started)
	if err != nil {
		p.opts.log.Debug().Err(err).Str("pipeline", p.opts.name).Str("run_id", r.id).Dur("duration", d).Msg("run failed")
	} else {
		p.opts.log.Debug().Str("pipeline", p.opts.name).Str("run_id", r.id).Dur("duration", d).Msg("run done")
	}
	if p.opts.observer != nil {
		_ = p.safely("observer", func() { p.opts.observer.RunCompleted(r.ctx, r.id, data, err, d) })
	}
	if r.callback != nil {
		_ = p.safely("callback", func() { r.callback(err, data) })
	}
	if err != nil {
		p.hub.emit(EventError, err)
	} else {
		p.hub.emit(EventDone, data)
	}
	p.hub.emit(EventEnd, Outcome{Err: err, Result: data})
	if idle {
		p.hub.emit(EventFinish, nil)
	}
}

// safely calls fn and turns a panic into a logged error.
func (p *Pipeline) safely(what string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fromPanicValue(r)
			p.opts.log.Error().Err(err).Str("pipeline", p.opts.name).Msg(what + " panicked")
		}
	}()
	fn()
	return nil
}
