package sysutil

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func restoreLogging(t *testing.T) {
	t.Helper()
	lvl, prev, prevCtx := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = prev
		zerolog.DefaultContextLogger = prevCtx
	})
}

func TestSetupLogging_JSONAndContextFallback(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogging(&buf, "info", false)

	log.Debug().Msg("hidden")
	zerolog.Ctx(context.Background()).Info().Str("bot", "b1").Msg("detached")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if m["message"] != "detached" || m["bot"] != "b1" || m["service"] != "botd" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestSetupLogging_Pretty(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogging(&buf, "debug", true)

	log.Debug().Msg("console")
	out := buf.String()
	if !strings.Contains(out, "console") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got %q", out)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	if got := FirstNonEmpty("   ", "  v1.2.0  ", "dev"); got != "  v1.2.0  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  v1.2.0  ")
	}
}
