package testutil

import (
	"net/http"

	"bondline/pkg/domain"
	"bondline/pkg/requestcontext"
)

// WithCaller simulates the auth middleware for handler tests that bypass it.
func WithCaller(req *http.Request, caller domain.Address, roles ...string) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), caller)
	if len(roles) > 0 {
		ctx = requestcontext.WithRoles(ctx, roles)
	}
	return req.WithContext(ctx)
}

// WithBearer sets the Authorization header for tests that run the full
// middleware chain.
func WithBearer(req *http.Request, token string) *http.Request {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
