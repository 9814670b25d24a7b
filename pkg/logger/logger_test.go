package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize default logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if err := Init(WithLevel("loud")); !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel, got %v", err)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf), WithLevel("debug")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("ledger").Info(context.Background(), "vote recorded",
		String("vote", "ai"), Int("direction", 1), Bool("creatorNudged", true), Float64("globalBias", 0.01))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if line["msg"] != "vote recorded" {
		t.Errorf("unexpected msg: %v", line["msg"])
	}
	group, ok := line["ledger"].(map[string]any)
	if !ok {
		t.Fatalf("expected ledger group, got %v", line)
	}
	if group["vote"] != "ai" || group["creatorNudged"] != true {
		t.Errorf("unexpected fields: %v", group)
	}
	source, _ := group["source"].(string)
	if !strings.Contains(source, "logger_test.go:") {
		t.Errorf("source should point at the caller, got %q", source)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithLevel("warn")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	Get().Info(ctx, "hidden")
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	Get().Warn(ctx, "shown", Error(errors.New("boom")))
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("warn line missing: %q", buf.String())
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	buf.Reset()
	Get().Debug(ctx, "now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug line missing after level change: %q", buf.String())
	}
}
