package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "sale", "finalize",
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, 3),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	assert.NotEmpty(t, telemetry.GetSpanID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sale.finalize", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, int64(3), attrMap(spans[0].Attributes())[telemetry.SpanAttrItemCount].AsInt64())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	saleID := uuid.New()

	_, span := telemetry.StartSpan(context.Background(), "test")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID,
		telemetry.SpanAttrQuantity, int64(2),
		42, "skipped",
		telemetry.SpanAttrAmount, 10.5,
	)
	telemetry.SetAttribute(span, "flag", true)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, saleID.String(), attrs[telemetry.SpanAttrSaleID].AsString())
	assert.Equal(t, int64(2), attrs[telemetry.SpanAttrQuantity].AsInt64())
	assert.Equal(t, 10.5, attrs[telemetry.SpanAttrAmount].AsFloat64())
	assert.True(t, attrs["flag"].AsBool())
	assert.Len(t, attrs, 4)
}

func TestRecordErrorAndSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartSpan(context.Background(), "failed")
	telemetry.RecordError(failed, errors.New("insufficient stock"))
	failed.End()

	_, ok := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(ok, nil)
	telemetry.SetOK(ok)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "insufficient stock", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Empty(t, spans[1].Events())
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test")
	telemetry.AddEvent(span, "compensation_started", telemetry.SpanAttrSaleID, "s-1")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "compensation_started", events[0].Name)
	assert.Equal(t, "s-1", attrMap(events[0].Attributes)[telemetry.SpanAttrSaleID].AsString())
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("boom"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "event")
	})
}
