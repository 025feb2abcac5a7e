/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// capture points the shared logger at a buffer for one test.
func capture(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	if err := Initialize(cfg); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		_ = Initialize(Config{Level: ErrorLevel})
	})
	return buf
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{TraceLevel, "trace"},
		{DebugLevel, "debug"},
		{InfoLevel, "info"},
		{WarnLevel, "warn"},
		{ErrorLevel, "error"},
		{Level(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", TraceLevel},
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelGate(t *testing.T) {
	buf := capture(t, Config{Level: WarnLevel})

	Debug("scanning snippet directory")
	Info("validation started")
	Warn("front matter missing id")
	Error("schema compile failed")

	out := buf.String()
	if strings.Contains(out, "scanning snippet directory") || strings.Contains(out, "validation started") {
		t.Errorf("levels below warn leaked through: %q", out)
	}
	if !strings.Contains(out, "front matter missing id") {
		t.Errorf("warn line missing from output: %q", out)
	}
	if !strings.Contains(out, "schema compile failed") {
		t.Errorf("error line missing from output: %q", out)
	}
}

func TestJSONRecord(t *testing.T) {
	buf := capture(t, Config{Level: InfoLevel, JSON: true, Component: "snipmark"})

	Info("snippet validated", String("path", "snippets/greeting.md"), Int("findings", 2))

	var rec struct {
		Time      string                 `json:"time"`
		Level     string                 `json:"level"`
		Message   string                 `json:"message"`
		Component string                 `json:"component"`
		Fields    map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not a JSON record: %v\n%s", err, buf.String())
	}
	if rec.Level != "info" {
		t.Errorf("level = %q, want %q", rec.Level, "info")
	}
	if rec.Message != "snippet validated" {
		t.Errorf("message = %q, want %q", rec.Message, "snippet validated")
	}
	if rec.Component != "snipmark" {
		t.Errorf("component = %q, want %q", rec.Component, "snipmark")
	}
	if rec.Time == "" {
		t.Error("time missing from JSON record")
	}
	if rec.Fields["path"] != "snippets/greeting.md" {
		t.Errorf("fields[path] = %v", rec.Fields["path"])
	}
	if rec.Fields["findings"] != float64(2) {
		t.Errorf("fields[findings] = %v", rec.Fields["findings"])
	}
}

func TestPrettyLine(t *testing.T) {
	buf := capture(t, Config{Level: InfoLevel, Component: "snipmark"})

	Info("fix applied", String("slug", "greeting-note"))

	out := buf.String()
	for _, want := range []string{"INFO", "snipmark", "fix applied", "slug=greeting-note"} {
		if !strings.Contains(out, want) {
			t.Errorf("pretty line missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("color escapes present without UseColor: %q", out)
	}
}

func TestPrettyLineColor(t *testing.T) {
	buf := capture(t, Config{Level: InfoLevel, UseColor: true})

	Warn("snippet modified outside git")

	if !strings.Contains(buf.String(), ansiYellow) {
		t.Errorf("expected colored warn tag, got %q", buf.String())
	}
}

func TestNoOpMarker(t *testing.T) {
	buf := capture(t, Config{Level: InfoLevel, NoOp: true})

	Info("would rewrite front matter")

	if !strings.Contains(buf.String(), "[no-op]") {
		t.Errorf("pretty line missing no-op marker: %q", buf.String())
	}

	buf = capture(t, Config{Level: InfoLevel, NoOp: true, JSON: true})
	Info("would rewrite front matter")
	var rec struct {
		NoOp bool `json:"no_op"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not a JSON record: %v", err)
	}
	if !rec.NoOp {
		t.Errorf("no_op flag missing from JSON record: %s", buf.String())
	}
}

func TestCallerOnlyInVerboseRuns(t *testing.T) {
	buf := capture(t, Config{Level: DebugLevel})
	Debug("probing git history")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("debug-level config should include caller info: %q", buf.String())
	}

	buf = capture(t, Config{Level: InfoLevel})
	Info("probing git history")
	if strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("info-level config should omit caller info: %q", buf.String())
	}
}

func TestErrField(t *testing.T) {
	f := Err(errors.New("boom"))
	if f.Key != "error" || f.Value != "boom" {
		t.Errorf("Err() = %+v", f)
	}
	f = Err(nil)
	if f.Key != "error" || f.Value != "<nil>" {
		t.Errorf("Err(nil) = %+v", f)
	}
}

func TestHelpersBeforeInitialize(t *testing.T) {
	saved := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = saved }()

	// Must not panic; warnings and errors go to bare stderr.
	Trace("ignored")
	Debug("ignored")
	Info("ignored")
	Warn("kept visible")
	Error("kept visible")
}
