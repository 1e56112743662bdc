package logging

import "context"

type ctxKey struct{}

// ContextWith returns a ctx whose key-value pairs are added to every line
// logged with it, so one sync run can be followed across packages.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := fromContext(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func fromContext(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	args, _ := ctx.Value(ctxKey{}).([]any)
	return args
}

// withContext puts the context pairs in front of the call site pairs.
func withContext(ctx context.Context, args []any) []any {
	extra := fromContext(ctx)
	if len(extra) == 0 {
		return args
	}
	out := make([]any, 0, len(extra)+len(args))
	out = append(out, extra...)
	return append(out, args...)
}
