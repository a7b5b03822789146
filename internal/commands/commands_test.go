package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/reactor"
	"github.com/thegreatkingbear/calendar-clock/internal/state"
)

func TestNew_RegistersCommands(t *testing.T) {
	t.Parallel()

	root := New()
	for _, name := range []string{"run", "status", "agenda", "calendars", "toggle", "weather"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s command, got %v (%v)", name, cmd, err)
		}
	}
}

func TestStatus_PrintsSnapshot(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("CALENDAR_CLOCK_CONFIG_FILE", filepath.Join(tmp, "none.env"))

	snapshotPath := filepath.Join(tmp, "state", "calendar-clock", "snapshot.json")
	st := reactor.State{Time: "09:41:00", Date: "Mon, Mar 2", Events: []reactor.EventSection{}}
	if err := state.SaveSnapshot(snapshotPath, st, time.Date(2026, 3, 2, 9, 41, 0, 0, time.UTC)); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	var out bytes.Buffer
	root := New()
	root.SetOut(&out)
	root.SetArgs([]string{"status", "--output", "json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"time": "09:41:00"`) || !strings.Contains(out.String(), "2026-03-02T09:41:00Z") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestStatus_MissingSnapshot(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("CALENDAR_CLOCK_CONFIG_FILE", filepath.Join(tmp, "none.env"))

	root := New()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"status"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without snapshot")
	}
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("CALENDAR_CLOCK_CONFIG_FILE", filepath.Join(tmp, "none.env"))

	root := New()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"status", "--output", "xml"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected format error, got %v", err)
	}
}
