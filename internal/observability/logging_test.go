package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

type testHandler struct {
	enabled    bool
	handled    int
	lastRecord slog.Record
	attrs      []slog.Attr
}

func (h *testHandler) Enabled(context.Context, slog.Level) bool { return h.enabled }

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	h.handled++
	h.lastRecord = r
	return nil
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *testHandler) WithGroup(string) slog.Handler { return h }

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"WARN ": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", in, got, want)
		}
	}
}

func TestTraceContextHandlerWithoutSpanPassesThrough(t *testing.T) {
	inner := &testHandler{enabled: true}
	h := &traceContextHandler{next: inner}

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if inner.handled != 1 {
		t.Fatalf("expected inner handler invoked once, got %d", inner.handled)
	}
	inner.lastRecord.Attrs(func(a slog.Attr) bool {
		if a.Key == "trace_id" || a.Key == "span_id" {
			t.Fatalf("unexpected trace attr %q without active span", a.Key)
		}
		return true
	})
}

func TestRecordMetricsAreSafeWithoutProvider(t *testing.T) {
	// No meter provider is registered in tests; the global no-op provider
	// must make these calls harmless.
	ctx := context.Background()
	RecordRepositoryOperation(ctx, "otp", "create", "success")
	RecordAuthEvent(ctx, "identifier_otp", "soft_success")
	RecordDocumentEvent(ctx, "view", "allowed")
}
