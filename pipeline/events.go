package pipeline

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event names a pipeline notification.
type Event string

const (
	// EventRun fires when a run starts while the pipeline is idle.
	EventRun Event = "run"
	// EventDone fires for every successful run; the payload is the result.
	EventDone Event = "done"
	// EventError fires for every failed run; the payload is the error.
	EventError Event = "error"
	// EventEnd fires after every run; the payload is an Outcome.
	EventEnd Event = "end"
	// EventFinish fires when the last in-flight run settles.
	EventFinish Event = "finish"
)

// Listener receives the payload of an event. EventRun and EventFinish carry a
// nil payload.
type Listener func(payload any)

// ListenerID identifies a subscription for Off.
type ListenerID uint64

// Outcome is the payload of EventEnd. Exactly one of Err and Result is
// meaningful: Result is nil when Err is set.
type Outcome struct {
	Err    error
	Result any
}

type subscription struct {
	id   ListenerID
	fn   Listener
	once bool
}

// hub is an in-process observer registry keyed by event name.
type hub struct {
	mu     sync.Mutex
	nextID ListenerID
	subs   map[Event][]subscription
	log    zerolog.Logger
}

func newHub(log zerolog.Logger) *hub {
	return &hub{subs: make(map[Event][]subscription), log: log}
}

func (h *hub) add(e Event, fn Listener, once bool) ListenerID {
	if fn == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[e] = append(h.subs[e], subscription{id: h.nextID, fn: fn, once: once})
	return h.nextID
}

func (h *hub) remove(e Event, id ListenerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[e]
	for i, s := range subs {
		if s.id == id {
			h.subs[e] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

func (h *hub) count(e Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[e])
}

// emit calls every listener of e in subscription order. One-shot listeners are
// dropped before any listener runs. A panicking listener is logged and does not
// stop the others.
func (h *hub) emit(e Event, payload any) {
	h.mu.Lock()
	subs := h.subs[e]
	if len(subs) == 0 {
		h.mu.Unlock()
		return
	}
	fire := make([]Listener, 0, len(subs))
	kept := subs[:0:0]
	for _, s := range subs {
		fire = append(fire, s.fn)
		if !s.once {
			kept = append(kept, s)
		}
	}
	h.subs[e] = kept
	h.mu.Unlock()

	for _, fn := range fire {
		h.call(e, fn, payload)
	}
}

func (h *hub) call(e Event, fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Err(fromPanicValue(r)).Str("event", string(e)).Msg("listener panicked")
		}
	}()
	fn(payload)
}
