package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextClientKey ctxKey = "client"

// ClientContext is the request-scoped data about the shopper's browser that
// is not part of the order.
type ClientContext struct {
	Mobile   bool
	Timezone string
	Locale   string
}

func ClientFromContext(ctx context.Context) ClientContext {
	if ctx == nil {
		return ClientContext{}
	}
	if client, ok := ctx.Value(ContextClientKey).(ClientContext); ok {
		return client
	}
	return ClientContext{}
}

func ContextWithClient(ctx context.Context, client ClientContext) context.Context {
	return context.WithValue(ctx, ContextClientKey, client)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
