package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level. Unknown levels fall
// back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(level),
		Prefix:          "calendar-clock",
	})
}

func ParseLevel(level string) log.Level {
	parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
