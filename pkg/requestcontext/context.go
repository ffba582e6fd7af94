// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services read them without importing net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	at := requestcontext.Now(ctx)
//
// Tests and batch jobs inject a fixed evaluation time:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "candlepin/pkg/domain"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	ownerIDKey     struct{}
)

var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyOwnerID     = ownerIDKey{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// OwnerID retrieves the owner scope of a batch job, if any.
func OwnerID(ctx context.Context) id.OwnerID {
	if ownerID, ok := ctx.Value(ContextKeyOwnerID).(id.OwnerID); ok {
		return ownerID
	}
	return id.OwnerID{}
}

// WithOwnerID scopes a context to one owner, e.g. during an owner refresh.
func WithOwnerID(ctx context.Context, ownerID id.OwnerID) context.Context {
	return context.WithValue(ctx, ContextKeyOwnerID, ownerID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so every evaluation in a
// request or batch uses the same timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
