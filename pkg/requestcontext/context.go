// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services only read them:
//
//	caller := requestcontext.Caller(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Tests inject them directly:
//
//	ctx = requestcontext.WithCaller(ctx, domain.MustAddress("0x..."))
package requestcontext

import (
	"context"

	"bondline/pkg/domain"
)

type (
	callerKey    struct{}
	rolesKey     struct{}
	requestIDKey struct{}
)

// Caller returns the authenticated wallet address, or the zero Address.
func Caller(ctx context.Context) domain.Address {
	if a, ok := ctx.Value(callerKey{}).(domain.Address); ok {
		return a
	}
	return ""
}

// WithCaller injects the authenticated wallet address.
func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Roles returns the roles asserted by a verified token, if any.
func Roles(ctx context.Context) []string {
	if r, ok := ctx.Value(rolesKey{}).([]string); ok {
		return r
	}
	return nil
}

// WithRoles injects token-asserted roles.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, rolesKey{}, roles)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
