package logging

import (
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf strings.Builder
	l := New(Warn, Text, &buf)
	l.Info("should not appear")
	l.Warn("should appear")
	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("Info message leaked past a Warn-level logger: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("Warn message missing: %q", out)
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf strings.Builder
	l := New(Debug, Text, &buf).With(Field{Key: "session", Value: 0x81})
	l.Info("handshake started")
	if !strings.Contains(buf.String(), "session=129") {
		t.Fatalf("expected carried field in output, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf strings.Builder
	l := New(Debug, JSON, &buf)
	l.Error("dispatch failed", Field{Key: "err", Value: "timeout"})
	out := buf.String()
	if !strings.Contains(out, `"level":"ERROR"`) || !strings.Contains(out, `"err":"timeout"`) {
		t.Fatalf("unexpected JSON output: %q", out)
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	l := NewNop()
	l.Error("this should go nowhere")
}

func TestParseLevelAndFormat(t *testing.T) {
	if lv, err := ParseLevel("warn"); err != nil || lv != Warn {
		t.Fatalf("ParseLevel(warn) = %v, %v", lv, err)
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if f, err := ParseFormat("json"); err != nil || f != JSON {
		t.Fatalf("ParseFormat(json) = %v, %v", f, err)
	}
}
