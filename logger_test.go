package lightatlas

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() = nil")
	}
	ctx := context.Background()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(ctx, level) {
			t.Errorf("default logger enabled at %v, want silent", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)

	if Logger() != custom {
		t.Error("Logger() should return the configured logger")
	}
	Logger().Debug("slot grid test message", "gridSize", 3)
	if !strings.Contains(buf.String(), "slot grid test message") {
		t.Errorf("log output %q missing message", buf.String())
	}

	// Nil restores the silent default.
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
	buf.Reset()
	Logger().Error("dropped")
	if buf.Len() != 0 {
		t.Error("silent logger still wrote output")
	}
}
