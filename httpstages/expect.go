package httpstages

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dcshock/piperline/pipeline"
)

// Expect returns a handler that advances its input unchanged when predicate
// returns nil. Otherwise the run finishes with a *pipeline.ValidationError
// wrapping the predicate's error. Place it after ParseJSON or JSONPath to check
// a response.
func Expect(predicate func(any) error) pipeline.Handler {
	if predicate == nil {
		panic("httpstages.Expect: predicate must not be nil")
	}
	return func(ctx context.Context, input any, advance, finish pipeline.Resolver) {
		if err := predicate(input); err != nil {
			stage, _ := pipeline.StageFromContext(ctx)
			finish(&pipeline.ValidationError{Stage: stage, Input: input, Err: err})
			return
		}
		advance(input)
	}
}

// ExpectEqual returns an Expect handler that requires the input to be
// reflect.DeepEqual to want. Decoded JSON numbers are float64.
func ExpectEqual(want any) pipeline.Handler {
	return Expect(func(got any) error {
		if !reflect.DeepEqual(got, want) {
			return fmt.Errorf("got %v, want %v", got, want)
		}
		return nil
	})
}
