package rules

import (
	"context"
	"encoding/json"

	dErrors "candlepin/pkg/domain-errors"
)

// Invoker is satisfied by Host.
type Invoker interface {
	Invoke(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error)
}

// FallbackFunc serves a rule function the rules do not define.
type FallbackFunc func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

// Fallback adapts a typed built-in into a FallbackFunc.
func Fallback[In, Out any](fn func(ctx context.Context, in In) (Out, error)) FallbackFunc {
	return func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
		var in In
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid rule context")
			}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	}
}

// Call invokes name with input encoded as JSON and decodes the result into
// T. ok is false when the function is undefined or returned nil.
func Call[T any](ctx context.Context, inv Invoker, name string, input any) (T, bool, error) {
	var zero T
	return CallOnto(ctx, inv, name, input, zero)
}

// CallOnto is Call decoding over base, so fields the result omits keep
// their base values. base is returned unchanged when ok is false.
func CallOnto[T any](ctx context.Context, inv Invoker, name string, input any, base T) (result T, ok bool, err error) {
	result = base
	raw, err := json.Marshal(input)
	if err != nil {
		return result, false, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid rule context")
	}
	out, err := inv.Invoke(ctx, name, raw)
	if err != nil {
		return result, false, err
	}
	if len(out) == 0 || string(out) == "null" {
		return result, false, nil
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return result, false, dErrors.Wrap(err, dErrors.CodeRuleExecution, "rule "+name+" returned an unexpected shape")
	}
	return result, true, nil
}
