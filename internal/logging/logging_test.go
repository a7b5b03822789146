package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want log.Level
	}{
		{in: "debug", want: log.DebugLevel},
		{in: " WARN ", want: log.WarnLevel},
		{in: "nonsense", want: log.InfoLevel},
		{in: "", want: log.InfoLevel},
	}

	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Fatalf("unexpected output: %q", out)
	}
}
