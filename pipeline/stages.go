package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Stage is a synchronous step: it returns the next input or an error. Use
// Handler (or FromStage) to register it in a Pipeline.
type Stage func(ctx context.Context, input any) (any, error)

// Handler adapts s: a nil error advances with the output, an error finishes
// the run with it.
func (s Stage) Handler() Handler {
	if s == nil {
		return nil
	}
	return func(ctx context.Context, input any, advance, finish Resolver) {
		out, err := s(ctx, input)
		if err != nil {
			finish(err)
			return
		}
		advance(out)
	}
}

// FromStage is Stage.Handler for function literals.
func FromStage(s func(ctx context.Context, input any) (any, error)) Handler {
	return Stage(s).Handler()
}

// Func adapts a plain transform that can not fail.
func Func(fn func(input any) any) Handler {
	if fn == nil {
		return nil
	}
	return func(_ context.Context, input any, advance, _ Resolver) {
		advance(fn(input))
	}
}

// Terminal wraps h so its advance ends the run instead of moving on: the run
// stops after h whatever handlers follow it.
func Terminal(h Handler) Handler {
	if h == nil {
		return nil
	}
	return func(ctx context.Context, input any, _, finish Resolver) {
		h(ctx, input, finish, finish)
	}
}

// Async runs s on its own goroutine so it may block, and resolves back into
// the pipeline when it returns. A panic in s fails the run.
func Async(s Stage) Handler {
	if s == nil {
		return nil
	}
	return func(ctx context.Context, input any, advance, finish Resolver) {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					stage, _ := StageFromContext(ctx)
					finish(&HandlerError{Stage: stage, Value: r})
				}
			}()
			out, err := s(ctx, input)
			if err != nil {
				finish(err)
				return
			}
			advance(out)
		}()
	}
}

// InputTypeError is the value a typed handler finishes with when its input
// has the wrong dynamic type.
type InputTypeError struct {
	Stage int
	Want  string
	Got   any
}

func (e *InputTypeError) Error() string {
	return fmt.Sprintf("pipeline: handler %d wants %s input, got %T", e.Stage, e.Want, e.Got)
}

// ValidationError is the value a Validate handler finishes with when its check
// rejects the input.
type ValidationError struct {
	Stage int
	Input any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline: handler %d rejected input: %v", e.Stage, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is (or wraps) a rejected input.
func IsValidationError(err error) bool { return errors.As(err, new(*ValidationError)) }

func typed[T any](ctx context.Context, input any) (T, error) {
	v, ok := input.(T)
	if !ok {
		stage, _ := StageFromContext(ctx)
		return v, &InputTypeError{Stage: stage, Want: fmt.Sprintf("%T", v), Got: input}
	}
	return v, nil
}

// Transform returns a handler that converts an A input to a B and advances
// with it. A conversion error, or an input that is not an A, finishes the run.
func Transform[A, B any](fn func(ctx context.Context, in A) (B, error)) Handler {
	return func(ctx context.Context, input any, advance, finish Resolver) {
		a, err := typed[A](ctx, input)
		if err != nil {
			finish(err)
			return
		}
		b, err := fn(ctx, a)
		if err != nil {
			finish(err)
			return
		}
		advance(b)
	}
}

// Validate returns a handler that advances its input unchanged when check
// returns nil. Otherwise the run finishes with a *ValidationError wrapping the
// check's error.
func Validate[T any](check func(T) error) Handler {
	return func(ctx context.Context, input any, advance, finish Resolver) {
		v, err := typed[T](ctx, input)
		if err != nil {
			finish(err)
			return
		}
		if err := check(v); err != nil {
			stage, _ := StageFromContext(ctx)
			finish(&ValidationError{Stage: stage, Input: input, Err: err})
			return
		}
		advance(input)
	}
}

// Each returns a handler that converts a []T input element by element and
// advances with the []U. The first failing element finishes the run.
func Each[T, U any](fn func(ctx context.Context, el T) (U, error)) Handler {
	return Transform(func(ctx context.Context, in []T) ([]U, error) {
		out := make([]U, len(in))
		for i := range in {
			u, err := fn(ctx, in[i])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = u
		}
		return out, nil
	})
}
