package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "flow.publish", FlowAttributes("org", "FLOW-1")...)
	SetError(span, errors.New("boom"), attribute.String(FlowCodeKey, "FLOW-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	ended := spans[0]
	assert.Equal(t, "flow.publish", ended.Name())
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "boom", ended.Status().Description)
	assert.Contains(t, ended.Attributes(), attribute.String(FlowCodeKey, "FLOW-1"))
	assert.Contains(t, ended.Attributes(), attribute.String(OrganizationCodeKey, "org"))
}
