package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestCloudRunHandlerWritesSeverityAndData(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelInfo)).With("request_id", "r-1")

	log.Warn("budget exceeded", "error", errors.New("over by 10"))

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if event["severity"] != "WARNING" {
		t.Fatalf("severity = %v, want WARNING", event["severity"])
	}
	if event["message"] != "budget exceeded" {
		t.Fatalf("message = %v", event["message"])
	}
	data, ok := event["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data: %v", event)
	}
	if data["request_id"] != "r-1" {
		t.Fatalf("request_id = %v", data["request_id"])
	}
	if data["error"] != "over by 10" {
		t.Fatalf("error = %v", data["error"])
	}
}

func TestCloudRunHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelWarn))

	log.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below level, got %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil")
	}
}

func TestWithStoresEnrichedLogger(t *testing.T) {
	base := slog.New(NewTestHandler(slog.LevelDebug))
	ctx := ToContext(context.Background(), base)

	enriched, ctx := With(ctx, "uid", "u-1")
	if FromContext(ctx) != enriched {
		t.Fatal("context does not carry the enriched logger")
	}
	if !IsDebugEnabled(ctx) {
		t.Fatal("expected debug to be enabled")
	}
}

func TestGetSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := getSlogLevel(in); got != want {
			t.Errorf("getSlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCloudRunHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelDebug)).WithGroup("plaid").With("bank_id", "item-1")

	log.Debug("sync page", slog.Group("page", "added", 3))

	var event struct {
		Severity string         `json:"severity"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if event.Severity != "DEBUG" {
		t.Fatalf("severity = %q", event.Severity)
	}
	if event.Data["plaid.bank_id"] != "item-1" {
		t.Fatalf("data = %v", event.Data)
	}
	if event.Data["plaid.page.added"] != float64(3) {
		t.Fatalf("data = %v", event.Data)
	}
}
