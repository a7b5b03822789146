package reactor

import (
	"testing"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

type recordingEffects struct {
	saved     [][]calendar.PersistedGroup
	published []calendar.IdentifierSet
}

func (f *recordingEffects) SaveSettings(groups []calendar.PersistedGroup) {
	f.saved = append(f.saved, groups)
}

func (f *recordingEffects) PublishSelection(ids calendar.IdentifierSet) {
	f.published = append(f.published, ids)
}

func settingsGroups() []calendar.Group {
	return []calendar.Group{
		{Header: "Local", Items: []calendar.Descriptor{{Owner: "Local", UID: "home", Name: "Home", Selected: true}}},
		{Header: "me@example.com", Items: []calendar.Descriptor{
			{Owner: "me@example.com", UID: "work", Name: "Work", Selected: true},
			{Owner: "me@example.com", UID: "holidays", Name: "Holidays", Selected: false},
		}},
	}
}

func TestCalendarsFetched_ReplacesGroups(t *testing.T) {
	t.Parallel()

	fx := &recordingEffects{}
	r := NewSettings(fx)
	state := r.Reduce(SettingsState{}, CalendarsFetched{Groups: settingsGroups()})
	if len(state.Groups) != 2 {
		t.Fatalf("unexpected groups %+v", state.Groups)
	}
	if len(fx.saved) != 0 || len(fx.published) != 0 {
		t.Fatalf("fetching must not persist or publish")
	}
}

func TestCalendarToggled_PersistsAndPublishesNewState(t *testing.T) {
	t.Parallel()

	fx := &recordingEffects{}
	r := NewSettings(fx)
	initial := SettingsState{Groups: settingsGroups()}

	state := r.Reduce(initial, CalendarToggled{Identifier: "work"})
	if state.Groups[1].Items[0].Selected {
		t.Fatalf("expected work to be deselected")
	}
	if !initial.Groups[1].Items[0].Selected {
		t.Fatalf("toggle mutated the previous state")
	}

	if len(fx.saved) != 1 || fx.saved[0][1].Items[0].Selected {
		t.Fatalf("expected the toggled state to be saved, got %+v", fx.saved)
	}
	if len(fx.published) != 1 {
		t.Fatalf("expected one publish")
	}
	ids := fx.published[0]
	if len(ids) != 1 || !ids.Has("home") {
		t.Fatalf("unexpected published ids %v", ids.Sorted())
	}
}

func TestCalendarToggled_UnknownIdentifierIsNoop(t *testing.T) {
	t.Parallel()

	fx := &recordingEffects{}
	r := NewSettings(fx)
	state := r.Reduce(SettingsState{Groups: settingsGroups()}, CalendarToggled{Identifier: "gone"})
	if len(state.Groups) != 2 || len(fx.saved) != 0 || len(fx.published) != 0 {
		t.Fatalf("unknown identifier must not persist or publish")
	}
}
