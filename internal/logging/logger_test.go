package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func capture(t *testing.T, debug bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Options{ServiceName: "mall-parking-test", Environment: "test", Debug: debug, Output: &buf})
	t.Cleanup(func() { logger = nil })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestInitWritesJSONWithServiceFields(t *testing.T) {
	buf := capture(t, false)

	Info(context.Background(), "vehicle checked in", Plate("KA01"), Slot("A1-01"), Session("s-1"), Amount(50))

	record := decodeLine(t, buf)
	assert.Equal(t, "vehicle checked in", record["msg"])
	assert.Equal(t, "KA01", record[KeyPlate])
	assert.Equal(t, "A1-01", record[KeySlot])
	assert.Equal(t, "s-1", record[KeySession])
	assert.Equal(t, 50.0, record[KeyAmount])
	assert.Equal(t, "mall-parking-test", record["service"])
	assert.Equal(t, "test", record["environment"])
}

func TestDebugLevel(t *testing.T) {
	buf := capture(t, false)
	Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	buf = capture(t, true)
	Debug(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestErrAttr(t *testing.T) {
	buf := capture(t, false)

	Warn(context.Background(), "check-out rejected", Err(errors.New("session is not active")))
	assert.Equal(t, "session is not active", decodeLine(t, buf)["error"])

	buf.Reset()
	Warn(context.Background(), "no error", Err(nil))
	_, ok := decodeLine(t, buf)["error"]
	assert.False(t, ok)
}

func TestTraceIDsFromContext(t *testing.T) {
	buf := capture(t, false)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Info(ctx, "inside span")

	record := decodeLine(t, buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
}

func TestLoggerFallsBackToDefault(t *testing.T) {
	logger = nil
	assert.NotNil(t, Logger())
}
