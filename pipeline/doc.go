// Package pipeline runs an ordered list of asynchronous handlers. Each handler
// receives the previous handler's output and either advances a value to the
// next handler or finishes the whole run with a final value:
//
//	p := pipeline.MustNew([]pipeline.Handler{
//	    pipeline.Func(func(v any) any { return v.(int) + 1 }),
//	    func(ctx context.Context, v any, advance, finish pipeline.Resolver) {
//	        go func() { advance(v.(int) * 2) }()
//	    },
//	})
//	p.Run(1, func(err error, result any) { fmt.Println(result) }) // 4
//
// # Execution
//
// Handlers are composed into a single assembly the first time the pipeline
// runs and the assembly is reused until a handler is added. Every handler
// invocation, every run completion, every event and every callback executes
// on a Loop: a FIFO task queue drained by one goroutine at a time. Run never
// executes a handler before it returns.
//
// Within one invocation only the first call to advance or finish counts. A
// panic is recovered and fails the run with a *HandlerError. An error passed
// to advance or finish, or used as the run input, skips every remaining
// handler. A handler that never resolves stalls its run forever; the pipeline
// has no timeouts.
//
// # Concurrent runs
//
// Runs may overlap; IsRunning is true while any is in flight. Pipe returns
// ErrBusy during that time, so handlers are only added while idle.
//
// # Events
//
// On, Once and Off subscribe to EventRun (a run started while idle),
// EventDone and EventError (per run), EventEnd (per run, with an Outcome) and
// EventFinish (the last in-flight run settled).
//
// # Observing runs
//
// WithObserver attaches hooks called around runs and handler invocations; the
// observer package has zerolog and Prometheus implementations. Each run gets a
// UUID run id, available to handlers through RunIDFromContext.
package pipeline
