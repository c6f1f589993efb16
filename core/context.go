package core

import (
	"context"
	"time"
)

// Context keys for request options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	computedAtKey     contextKey = "computedAt"
)

// WithSuppressHeader disables the request header, e.g. for tool calls whose stdout is a protocol stream.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withComputedAt pins the archive timestamp so every snapshot of one run shares it.
func withComputedAt(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, computedAtKey, t)
}

// getComputedAt returns the pinned archive timestamp, or the current time.
func getComputedAt(ctx context.Context) time.Time {
	if t, ok := ctx.Value(computedAtKey).(time.Time); ok && !t.IsZero() {
		return t
	}
	return time.Now().UTC().Truncate(time.Millisecond)
}
