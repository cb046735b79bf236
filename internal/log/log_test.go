package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"TRACE", LevelDebug},
		{"info", LevelInfo},
		{"error", LevelError},
		{"  fatal ", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Fatalf("ParseLevel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: LevelInfo, Format: "json", Writer: &buf})

	Debug("hidden-debug", "k", "v")
	Info("visible-info", "entry", "plan.txt:3", "count", 2)
	Error("visible-error", errors.New("boom"), "date", "2021-11-07")

	out := buf.String()
	if strings.Contains(out, "hidden-debug") {
		t.Fatalf("debug line emitted at INFO level:\n%s", out)
	}
	for _, want := range []string{"visible-info", `"entry":"plan.txt:3"`, `"count":2`, "visible-error", `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("shown-debug")
	if !strings.Contains(buf.String(), "shown-debug") {
		t.Fatalf("debug line not emitted after SetLevel(DEBUG)")
	}
}

func TestPairsSkipsMalformedKeys(t *testing.T) {
	got := pairs([]any{"a", 1, 2, "b", "odd"})
	if len(got) != 1 || got["a"] != 1 {
		t.Fatalf("pairs() = %v", got)
	}
}
