package config

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dcshock/piperline/pipeline"
)

// named maps names to values. Safe for concurrent use.
type named[T any] struct {
	kind  string
	mu    sync.RWMutex
	items map[string]T
}

func (n *named[T]) register(name string, v T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.items == nil {
		n.items = make(map[string]T)
	}
	n.items[name] = v
}

func (n *named[T]) get(name string) (T, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.items[name]
	return v, ok
}

func (n *named[T]) mustGet(name string) T {
	v, ok := n.get(name)
	if !ok {
		panic(fmt.Sprintf("config: %s %q not registered", n.kind, name))
	}
	return v
}

func (n *named[T]) names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.items))
	for k := range n.items {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Registry maps handler names to pipeline handlers. Safe for concurrent use.
type Registry struct {
	handlers named[pipeline.Handler]
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: named[pipeline.Handler]{kind: "handler"}}
}

// Register adds a handler under the given name, replacing any existing one.
// A nil handler is rejected with pipeline.ErrInvalidHandler.
func (r *Registry) Register(name string, h pipeline.Handler) error {
	if h == nil {
		return fmt.Errorf("config: register %q: %w", name, pipeline.ErrInvalidHandler)
	}
	r.handlers.register(name, h)
	return nil
}

// RegisterStage registers a synchronous stage as a handler.
func (r *Registry) RegisterStage(name string, s pipeline.Stage) error {
	return r.Register(name, s.Handler())
}

// Get returns the handler for name, or nil and false if not found.
func (r *Registry) Get(name string) (pipeline.Handler, bool) { return r.handlers.get(name) }

// MustGet returns the handler for name, or panics if not found.
func (r *Registry) MustGet(name string) pipeline.Handler { return r.handlers.mustGet(name) }

// Names returns all registered handler names, sorted.
func (r *Registry) Names() []string { return r.handlers.names() }

// ObserverRegistry maps names to observers referenced by PipelineConfig.Observers.
type ObserverRegistry struct {
	observers named[pipeline.Observer]
}

// NewObserverRegistry returns an empty observer registry.
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{observers: named[pipeline.Observer]{kind: "observer"}}
}

// Register adds an observer under the given name.
func (r *ObserverRegistry) Register(name string, obs pipeline.Observer) {
	r.observers.register(name, obs)
}

// Get returns the observer for name, or nil and false if not found.
func (r *ObserverRegistry) Get(name string) (pipeline.Observer, bool) { return r.observers.get(name) }

// Names returns all registered observer names, sorted.
func (r *ObserverRegistry) Names() []string { return r.observers.names() }
