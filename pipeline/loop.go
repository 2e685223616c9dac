package pipeline

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Loop is a cooperative task queue: tasks passed to Defer run one at a time,
// in FIFO order, on a single drainer goroutine. A task deferred from inside
// another task runs after it returns, never nested inside it.
//
// The drainer exits when the queue is empty and is started again by the next
// Defer, so an idle Loop holds no goroutine. Tasks must not block: a task that
// blocks stalls every pipeline sharing the loop.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
	log      zerolog.Logger
}

// NewLoop returns an empty loop. Panics raised by tasks are recovered and
// logged to log.
func NewLoop(log zerolog.Logger) *Loop {
	return &Loop{log: log}
}

var (
	defaultLoopOnce sync.Once
	defaultLoop     *Loop
)

// DefaultLoop returns the process-wide loop used by pipelines created without
// WithLoop.
func DefaultLoop() *Loop {
	defaultLoopOnce.Do(func() {
		defaultLoop = NewLoop(zerolog.Nop())
	})
	return defaultLoop
}

// Defer queues task for the next turn of the loop.
func (l *Loop) Defer(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, task)
	if l.draining {
		l.mu.Unlock()
		return
	}
	l.draining = true
	l.mu.Unlock()
	go l.drain()
}

// Pending returns the number of queued tasks that have not started yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.draining = false
			l.queue = nil
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(task)
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Err(fromPanicValue(r)).Msg("loop task panicked")
		}
	}()
	task()
}

// fromPanicValue converts a recovered value to an error.
func fromPanicValue(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}
