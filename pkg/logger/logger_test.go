package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCriticalLevelRendered(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")

	log.Critical("app: init failed", "err", "boom")

	if !strings.Contains(buf.String(), `"level":"CRITICAL"`) {
		t.Fatalf("expected CRITICAL level, got %s", buf.String())
	}
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "text")

	log.BusinessError("rooms.join: room full", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil error, got %q", buf.String())
	}

	log.BusinessError("rooms.join: room full", errors.New("room is full"), "room_id", "room-1")
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "room_id=room-1") {
		t.Fatalf("expected warn line with attrs, got %q", out)
	}
}

func TestWithAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json").With("component", "realtime")

	log.Info("hub: started")

	if !strings.Contains(buf.String(), `"component":"realtime"`) {
		t.Fatalf("expected component attr, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		value string
		env   string
		want  slog.Level
	}{
		{value: "", env: "development", want: slog.LevelDebug},
		{value: "", env: "production", want: slog.LevelInfo},
		{value: "WARN", env: "production", want: slog.LevelWarn},
		{value: "fatal", env: "production", want: LevelCritical},
		{value: "bogus", env: "production", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := parseLevel(tc.value, tc.env); got != tc.want {
			t.Fatalf("parseLevel(%q, %q) = %v, want %v", tc.value, tc.env, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := parseFormat(" Pretty "); got != "pretty" {
		t.Fatalf("expected pretty, got %q", got)
	}
	if got := parseFormat("xml"); got != "json" {
		t.Fatalf("expected json fallback, got %q", got)
	}
}
