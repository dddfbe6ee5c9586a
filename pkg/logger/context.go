package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into stores l on ctx as the request logger.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns a context whose logger carries fields in addition to the
// ones already on ctx.
func With(ctx context.Context, fields ...any) context.Context {
	return Into(ctx, From(ctx).With(fields...))
}

// From returns the request logger, or the process logger outside a request.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
