package httpstages

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dcshock/piperline/pipeline"
	"github.com/tidwall/gjson"
)

func rawBytes(op string, input any) ([]byte, error) {
	switch v := input.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%s: input must be []byte or string, got %T", op, input)
	}
}

// ParseJSON returns a stage that decodes a JSON body ([]byte or string) into
// a generic value, e.g. map[string]any for objects.
func ParseJSON() pipeline.Stage {
	return func(_ context.Context, input any) (any, error) {
		raw, err := rawBytes("parsejson", input)
		if err != nil {
			return nil, err
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsejson: %w", err)
		}
		return out, nil
	}
}

// ParseJSONTo returns a stage that decodes a JSON body into a *T.
func ParseJSONTo[T any]() pipeline.Stage {
	return func(_ context.Context, input any) (any, error) {
		raw, err := rawBytes("parsejsonto", input)
		if err != nil {
			return nil, err
		}
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsejsonto: %w", err)
		}
		return &out, nil
	}
}

// JSONPath returns a stage that extracts the value at path (gjson syntax,
// e.g. "data.items.#.id") from a JSON body. The output is the decoded value of
// the match. A missing path or invalid JSON fails the stage.
func JSONPath(path string) pipeline.Stage {
	return func(_ context.Context, input any) (any, error) {
		raw, err := rawBytes("jsonpath", input)
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("jsonpath: invalid json")
		}
		res := gjson.GetBytes(raw, path)
		if !res.Exists() {
			return nil, fmt.Errorf("jsonpath: %q not found", path)
		}
		return res.Value(), nil
	}
}
