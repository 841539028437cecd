// Package requestcontext carries request-scoped identifiers through
// context.Context so services can log and publish them without depending on
// HTTP types.
package requestcontext

import "context"

type (
	contextKeyRequestID struct{}
	contextKeyClientIP  struct{}
	contextKeySubject   struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, requestID)
}

// RequestID returns the request id, or "" outside a request.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyRequestID{}).(string)
	return v
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyClientIP{}, ip)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyClientIP{}).(string)
	return v
}

// WithSubject records the authenticated caller identity.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKeySubject{}, subject)
}

func Subject(ctx context.Context) string {
	v, _ := ctx.Value(contextKeySubject{}).(string)
	return v
}
