package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey tags a failed span with the stable error code returned to clients.
const ErrorCodeKey = "talentpivot.error.code"

// RecordFailure marks span as failed with the given error code.
func RecordFailure(span trace.Span, err error, code string) {
	if err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(attribute.String(ErrorCodeKey, code)))
	span.SetStatus(codes.Error, code)
}
