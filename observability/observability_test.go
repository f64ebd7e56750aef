package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debug("debug", String("k", "v"))
	l.Warn("warn", Int("n", 1), Int64("off", 2))
	if _, ok := l.With(Error("err", errors.New("x"))).(NopLogger); !ok {
		t.Fatalf("With on NopLogger should return NopLogger")
	}
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Fatalf("OrNop(nil) should return NopLogger")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := NewSlogLogger(slog.New(h)).With(String("component", "parser"))

	l.Debug("hidden")
	l.Warn("stream length mismatch", Ref(12, 0), Int("declared", 40), Error("cause", errors.New("short read")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered: %q", out)
	}
	for _, want := range []string{"stream length mismatch", "component=parser", `ref="12 0 R"`, "declared=40", `cause="short read"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
