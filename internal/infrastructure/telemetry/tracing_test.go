package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "order.return_item")
	require.NotNil(t, span)
	defer span.End()

	assert.NotNil(t, ctx)
	assert.Equal(t, span, SpanFromContext(ctx))
}

func TestStartServiceSpan(t *testing.T) {
	ctx, span := StartServiceSpan(context.Background(), "order", "lock",
		WithAttribute(SpanAttrOrderID, uuid.New().String()))
	require.NotNil(t, span)
	defer span.End()
	assert.NotNil(t, ctx)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	// No-op spans carry no valid trace ID
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}

func TestRecordError_NilSafe(t *testing.T) {
	// Must not panic
	RecordError(nil, errors.New("boom"))

	_, span := StartSpan(context.Background(), "test")
	defer span.End()
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected attribute.KeyValue
	}{
		{"string", "hello", attribute.String("k", "hello")},
		{"int", 42, attribute.Int("k", 42)},
		{"int64", int64(42), attribute.Int64("k", 42)},
		{"float64", 4.2, attribute.Float64("k", 4.2)},
		{"bool", true, attribute.Bool("k", true)},
		{"stringer", uuid.Nil, attribute.String("k", uuid.Nil.String())},
		{"fallback", struct{}{}, attribute.String("k", "{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toAttribute("k", tt.value))
		})
	}
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.True(t, cfg.WithoutVariables)
}
