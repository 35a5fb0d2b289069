package core

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DebugLevel,
		"":        InfoLevel,
		" INFO ":  InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestAssertPanicsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)

	Assert(true, "never shown")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Assert(false) did not panic")
		}
		if !strings.Contains(r.(string), "bin 7") {
			t.Errorf("panic = %v", r)
		}
		if !strings.Contains(buf.String(), "bin 7") {
			t.Errorf("log output missing reason: %q", buf.String())
		}
	}()
	Assert(false, "bin %d", 7)
}
