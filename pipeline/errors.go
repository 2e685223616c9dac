package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidHandler is returned by Pipe (and New) when the handler is nil.
var ErrInvalidHandler = errors.New("pipeline: handler must be a non-nil function")

// ErrBusy is returned by Pipe while at least one run is in flight. The handler
// list and the cached assembly are only mutated while the pipeline is idle.
var ErrBusy = errors.New("pipeline: can not be changed during a run")

// HandlerError is the value a run fails with when a handler panics. Stage is
// the 0-based index of the handler and Value the recovered panic value.
type HandlerError struct {
	Stage int
	Value any
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("pipeline: handler %d panicked: %v", e.Stage, e.Value)
}

// Unwrap returns the panic value when it was an error, so errors.Is and
// errors.As see through the wrapper.
func (e *HandlerError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsHandlerError reports whether err is (or wraps) a recovered handler panic.
func IsHandlerError(err error) bool { return errors.As(err, new(*HandlerError)) }

// IsError reports whether v is an error-typed value. Error-typed values short
// circuit every stage they reach and settle the run as failed.
func IsError(v any) bool { return errorOf(v) != nil }

func errorOf(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}
