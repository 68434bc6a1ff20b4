package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	cfg := DefaultConfig()
	cfg.Handler = slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return New(cfg)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})
	handler = RequestIDMiddleware(func(r *http.Request) string { return "req_42" })(handler)
	handler = ComponentMiddleware(ComponentHTTP)(handler)
	handler = Middleware(logger)(handler)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	if !strings.Contains(out, "request_id=req_42") || !strings.Contains(out, "component=http") {
		t.Fatalf("context fields missing: %s", out)
	}
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("component logged %d times: %s", n, out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a fallback logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf))
	ctx := context.Background()

	sl.LogTableSaved(ctx, "equipment", "/data/equipment.csv", 3, "abc")
	sl.LogError(ctx, "boom", errors.New("disk full"), ComponentStore, OpSave, NewFields().WithRequestID("r1"))

	out := buf.String()
	for _, want := range []string{"kind=equipment", "rows=3", "revision=abc", "error=\"disk full\"", "operation=save", "request_id=r1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestComponentLoggedOnce(t *testing.T) {
	tests := map[string]func(sl *StructuredLogger){
		"table saved": func(sl *StructuredLogger) {
			sl.LogTableSaved(context.Background(), "roster", "/data/roster.csv", 2, "def")
		},
		"error": func(sl *StructuredLogger) {
			sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStore, OpSave, NewFields())
		},
		"http start": func(sl *StructuredLogger) {
			sl.LogHTTPStart(context.Background(), httptest.NewRequest(http.MethodGet, "/api/kinds", nil), "127.0.0.1")
		},
	}
	for name, logFn := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logFn(NewStructuredLogger(newBufferLogger(&buf).WithComponent(ComponentStore)))

			out := buf.String()
			if n := strings.Count(out, "component="); n != 1 {
				t.Fatalf("component logged %d times: %s", n, out)
			}
		})
	}
}
