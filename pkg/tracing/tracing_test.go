package tracing

import (
	"context"
	"errors"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(Config{Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tp == nil {
		t.Fatal("expected provider, got nil")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider failed: %v", err)
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.operation")
	if span == nil {
		t.Fatal("expected span, got nil")
	}
	if ctx == nil {
		t.Fatal("expected context, got nil")
	}
	span.End()
}

func TestAddSpanAttributes_NoopWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.operation")
	defer span.End()

	// Must not panic on a non-recording span.
	AddSpanAttributes(ctx, UserIDKey.String("user-1"), ChannelKey.String("retro"))
}

func TestRecordError_NoopWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.operation")
	defer span.End()

	RecordError(ctx, errors.New("boom"))
}

func TestTraceHTTPRequest(t *testing.T) {
	_, span := TraceHTTPRequest(context.Background(), "POST", "/api/v1/auth/token")
	if span == nil {
		t.Fatal("expected span, got nil")
	}
	span.End()
}

func TestTraceHandshake(t *testing.T) {
	_, span := TraceHandshake(context.Background(), "retro")
	if span == nil {
		t.Fatal("expected span, got nil")
	}
	span.End()
}
