// Package otel provides OpenTelemetry tracing helpers shared by the registry
// client and the sync engine.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on rir-manager spans.
const (
	AttrRegistryOp    = attribute.Key("registry.operation")
	AttrRegistryKey   = attribute.Key("registry.key")
	AttrErrorCategory = attribute.Key("registry.error_category")
	AttrConfigName    = attribute.Key("rir.config")
	AttrRIR           = attribute.Key("rir.name")
	AttrCredentialID  = attribute.Key("rir.credential_id")
	AttrSyncScopes    = attribute.Key("sync.scopes")
	AttrEntryCount    = attribute.Key("sync.entries")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the
// span already in ctx, which is a no-op span when there is none.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on the span and marks it failed. The status
// description stays generic so API keys and payloads never reach the status;
// the error itself is kept on the exception event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
