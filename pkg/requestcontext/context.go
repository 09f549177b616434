// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by transport middleware and consumed by services. Keeping
// this package free of net/http lets services import only what they need.
//
// The ledger clock lives here too: Now(ctx) is the timestamp a state change
// is committed with, so tests and batch operations can pin a single instant.
package requestcontext

import (
	"context"
	"time"
)

type (
	issuerIDKey   struct{}
	clientIPKey   struct{}
	deviceNameKey struct{}
	requestIDKey  struct{}
	ledgerTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyIssuerID   = issuerIDKey{}
	ContextKeyClientIP   = clientIPKey{}
	ContextKeyDeviceName = deviceNameKey{}
	ContextKeyRequestID  = requestIDKey{}
	ContextKeyLedgerTime = ledgerTimeKey{}
)

// IssuerID retrieves the authenticated issuer from the context.
func IssuerID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyIssuerID).(string); ok {
		return v
	}
	return ""
}

// WithIssuerID injects the authenticated issuer into the context.
func WithIssuerID(ctx context.Context, issuerID string) context.Context {
	return context.WithValue(ctx, ContextKeyIssuerID, issuerID)
}

// ClientIP retrieves the caller's IP address from the context.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return v
	}
	return ""
}

// DeviceName retrieves the parsed client device display name.
func DeviceName(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyDeviceName).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata injects client IP and device display name into a
// context. Useful for service tests that skip the middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, deviceName string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	return context.WithValue(ctx, ContextKeyDeviceName, deviceName)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the ledger-commit time from context. Falls back to time.Now()
// for non-HTTP contexts (workers, CLI, tests that don't pin time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyLedgerTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the ledger clock for a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyLedgerTime, t)
}
