package retry

import "context"

// DoWithResultTyped wraps Retryer.DoWithResult so callers get a typed value back.
//
//	reply, err := retry.DoWithResultTyped[*Reply](r, ctx, func() (*Reply, error) {
//	    return gen.GenerateReply(ctx, messages)
//	})
func DoWithResultTyped[T any](r Retryer, ctx context.Context, fn func() (T, error)) (T, error) {
	result, err := r.DoWithResult(ctx, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := result.(T)
	return typed, nil
}
