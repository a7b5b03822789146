package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/clock"
	"github.com/thegreatkingbear/calendar-clock/internal/events"
	"github.com/thegreatkingbear/calendar-clock/internal/logging"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newClockReactor(t *testing.T) (*Clock, *events.Aggregator) {
	t.Helper()
	agg := events.NewAggregator(nil, logging.Discard())
	t.Cleanup(agg.Close)
	return NewClock(clock.New("15:04:05", "2006-01-02", time.UTC), agg), agg
}

func sampleRecords() []events.Record {
	return []events.Record{
		{ID: "a", Title: "A", Start: t0, End: t0.Add(time.Hour)},
		{ID: "b", Title: "B", Start: t0.Add(time.Hour), End: t0.Add(2 * time.Hour)},
		{ID: "c", Title: "C", Start: t0.Add(2 * time.Hour), End: t0.Add(3 * time.Hour)},
	}
}

func itemTitles(state State) []string {
	var out []string
	for _, section := range state.Events {
		for _, r := range section.Items {
			out = append(out, r.Title)
		}
	}
	return out
}

func TestClicked_FlipsBlinkAndRefreshes(t *testing.T) {
	t.Parallel()

	r, _ := newClockReactor(t)
	state := r.Reduce(r.Initial(), EventsReceived{Records: sampleRecords()})

	state = r.Reduce(state, Clicked{Now: t0.Add(30 * time.Minute)})
	if !state.Blink || state.Time != "10:30:00" || state.Date != "2026-03-02" {
		t.Fatalf("unexpected clock fields %+v", state)
	}
	first := state.Events[0].Items[0]
	if first.Progress != 0.5 || !first.ShowProgress || first.RemainingSeconds != 1800 {
		t.Fatalf("expected refreshed progress, got %+v", first)
	}

	state = r.Reduce(state, Clicked{Now: t0.Add(30*time.Minute + time.Second)})
	if state.Blink || state.Time != "10 30 01" {
		t.Fatalf("expected blink off, got %+v", state)
	}
}

func TestEventsReceived_SingleSection(t *testing.T) {
	t.Parallel()

	r, _ := newClockReactor(t)
	state := r.Reduce(r.Initial(), EventsReceived{Records: sampleRecords()})

	if len(state.Events) != 1 || state.Events[0].Header != TodaySection {
		t.Fatalf("expected one section, got %+v", state.Events)
	}
	if got := itemTitles(state); len(got) != 3 {
		t.Fatalf("unexpected items %v", got)
	}

	state = r.Reduce(state, EventsReceived{Records: []events.Record{}})
	if len(state.Events) != 1 || len(state.Events[0].Items) != 0 {
		t.Fatalf("expected empty section after empty fetch, got %+v", state.Events)
	}
}

func TestHideAndUndo(t *testing.T) {
	t.Parallel()

	r, agg := newClockReactor(t)
	state := r.Reduce(r.Initial(), EventsReceived{Records: sampleRecords()})

	state = r.Reduce(state, EventHidden{Index: 1})
	if got := itemTitles(state); len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Fatalf("unexpected items after hide %v", got)
	}
	if state.HiddenCount != 1 || agg.HiddenCount() != 1 {
		t.Fatalf("expected one hidden event")
	}

	// A re-fetch keeps the hidden record out.
	state = r.Reduce(state, EventsReceived{Records: sampleRecords()})
	if got := itemTitles(state); len(got) != 2 {
		t.Fatalf("hidden record came back after refetch: %v", got)
	}

	// Index 1 now points at C.
	state = r.Reduce(state, EventHidden{Index: 1})
	if got := itemTitles(state); len(got) != 1 || got[0] != "A" {
		t.Fatalf("unexpected items after second hide %v", got)
	}

	state = r.Reduce(state, EventHidden{Index: 7})
	if state.HiddenCount != 2 {
		t.Fatalf("stale index must be a no-op, hidden=%d", state.HiddenCount)
	}

	state = r.Reduce(state, UndoRequested{})
	if got := itemTitles(state); len(got) != 3 || state.HiddenCount != 0 {
		t.Fatalf("expected everything visible after undo, got %v", got)
	}
}

func TestWeatherAndForecast(t *testing.T) {
	t.Parallel()

	r, _ := newClockReactor(t)
	state := r.Reduce(r.Initial(), WeatherReceived{Sample: weather.Sample{Description: "clear", Temperature: 3.4}})
	if state.Weather == nil || state.Weather.Description != "clear" {
		t.Fatalf("unexpected weather %+v", state.Weather)
	}

	samples := []weather.Sample{
		{Epoch: t0.Add(24 * time.Hour).Unix()},
		{Epoch: t0.Unix()},
	}
	state = r.Reduce(state, ForecastReceived{Samples: samples})
	if len(state.Forecast) != 2 || state.Forecast[0].Day != 2 || state.Forecast[1].Day != 3 {
		t.Fatalf("unexpected forecast %+v", state.Forecast)
	}
}

func TestFetchFailed_KeepsPriorState(t *testing.T) {
	t.Parallel()

	r, _ := newClockReactor(t)
	state := r.Reduce(r.Initial(), WeatherReceived{Sample: weather.Sample{Description: "rain"}})
	state = r.Reduce(state, EventsReceived{Records: sampleRecords()})

	next := r.Reduce(state, FetchFailed{Kind: FetchWeather, Err: errors.New("offline")})
	if next.Weather == nil || next.Weather.Description != "rain" || len(itemTitles(next)) != 3 {
		t.Fatalf("failure must not clear state: %+v", next)
	}
}

func TestDisplayLockToggled(t *testing.T) {
	t.Parallel()

	r, _ := newClockReactor(t)
	state := r.Reduce(r.Initial(), DisplayLockToggled{})
	if !state.DisplayLocked {
		t.Fatalf("expected lock on")
	}
	if state = r.Reduce(state, DisplayLockToggled{}); state.DisplayLocked {
		t.Fatalf("expected lock off")
	}
}

func TestCalendarSettingsLoaded_PublishesSelection(t *testing.T) {
	t.Parallel()

	r, agg := newClockReactor(t)
	groups := []calendar.Group{{
		Header: "me",
		Items: []calendar.Descriptor{
			{Owner: "me", UID: "work", Selected: true},
			{Owner: "me", UID: "home", Selected: false},
		},
	}}

	before := r.Initial()
	after := r.Reduce(before, CalendarSettingsLoaded{Groups: groups})
	ids, ok := agg.Selection()
	if !ok || len(ids) != 1 || !ids.Has("work") {
		t.Fatalf("unexpected published selection %v", ids.Sorted())
	}
	if after.Time != before.Time || len(after.Events) != 0 {
		t.Fatalf("state should be unchanged")
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	r, _ := newClockReactor(t)
	state := r.Reduce(r.Initial(), EventsReceived{Records: sampleRecords()})
	before := state.Events[0].Items[0].RemainingSeconds

	_ = r.Reduce(state, Clicked{Now: t0})
	if state.Events[0].Items[0].RemainingSeconds != before {
		t.Fatalf("Clicked mutated the previous snapshot")
	}
}
