// Package tracer is a small tracing abstraction for the credential engine.
// NoopTracer serves tests; OTelTracer adapts OpenTelemetry for production.
package tracer

import (
	"context"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed. Call exactly once.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start opens a span; the returned context carries it to child operations.
	//
	//   ctx, span := t.Start(ctx, "vc.present", tracer.String("credential_id", id))
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}
