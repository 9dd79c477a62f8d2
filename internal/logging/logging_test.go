package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestComponent_FollowsInit(t *testing.T) {
	// Created before Init, as package-level loggers are.
	log := Component("store")

	var buf bytes.Buffer
	InitWriter(&buf, slog.LevelInfo, true)
	t.Cleanup(func() { Logger = nil })

	log.Debug("hidden")
	log.With("table", "links").Info("schema ready", "tables", 3)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), buf.String())
	}
	rec := lines[0]
	if rec["component"] != "store" {
		t.Errorf("component = %v", rec["component"])
	}
	if rec["table"] != "links" {
		t.Errorf("table = %v", rec["table"])
	}
	if rec["msg"] != "schema ready" {
		t.Errorf("msg = %v", rec["msg"])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, slog.LevelInfo, true)
	t.Cleanup(func() { Logger = nil })

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithDocKey(ctx, "doc-42")

	if RequestID(ctx) != "req-1" {
		t.Errorf("RequestID = %q", RequestID(ctx))
	}

	WithContext(ctx).Warn("read failed")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["request_id"] != "req-1" || lines[0]["key"] != "doc-42" {
		t.Errorf("record = %v", lines[0])
	}
}

func TestRequestID_Missing(t *testing.T) {
	if id := RequestID(context.Background()); id != "" {
		t.Errorf("RequestID = %q, want empty", id)
	}
}
