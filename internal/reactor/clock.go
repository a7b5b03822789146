package reactor

import (
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/clock"
	"github.com/thegreatkingbear/calendar-clock/internal/events"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

// TodaySection is the header of the single event section.
const TodaySection = "Today"

// Effects is the clock screen's access to the event aggregator.
type Effects interface {
	Visible(records []events.Record) []events.Record
	HideAt(records []events.Record, index int) bool
	UndoAll()
	HiddenCount() int
	PublishSelection(ids calendar.IdentifierSet)
}

type EventSection struct {
	Header string          `json:"header" yaml:"header"`
	Items  []events.Record `json:"items" yaml:"items"`
}

// State is the immutable snapshot of the clock screen. Reducers return a
// new value and never modify slices reachable from the input.
type State struct {
	Time          string          `json:"time" yaml:"time"`
	Date          string          `json:"date" yaml:"date"`
	Blink         bool            `json:"blink" yaml:"blink"`
	Events        []EventSection  `json:"events" yaml:"events"`
	Weather       *weather.Sample `json:"weather,omitempty" yaml:"weather,omitempty"`
	Forecast      []weather.Group `json:"forecast" yaml:"forecast"`
	DisplayLocked bool            `json:"displayLocked" yaml:"displayLocked"`
	HiddenCount   int             `json:"hiddenCount" yaml:"hiddenCount"`

	// Fetched is the last unfiltered event fetch. Hiding and undo re-filter
	// it without another round trip.
	Fetched []events.Record `json:"-" yaml:"-"`
}

type Clock struct {
	clock    clock.Clock
	location *time.Location
	fx       Effects
}

func NewClock(c clock.Clock, fx Effects) *Clock {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return &Clock{clock: c, location: loc, fx: fx}
}

func (r *Clock) Initial() State {
	return State{Events: []EventSection{}, Forecast: []weather.Group{}}
}

// Location is the zone forecast samples are grouped in.
func (r *Clock) Location() *time.Location {
	return r.location
}

// Reduce applies action to state. Unknown actions return state unchanged.
func (r *Clock) Reduce(state State, action Action) State {
	switch a := action.(type) {
	case Clicked:
		blink := !state.Blink
		reading := r.clock.Read(a.Now, blink)
		state.Time = reading.Time
		state.Date = reading.Date
		state.Blink = blink
		state.Fetched = events.RefreshRemaining(state.Fetched, a.Now)
		state.Events = refreshSections(state.Events, a.Now)
		return state

	case EventsReceived:
		state.Fetched = append([]events.Record(nil), a.Records...)
		return r.refilter(state)

	case WeatherReceived:
		sample := a.Sample
		state.Weather = &sample
		return state

	case ForecastReceived:
		state.Forecast = weather.GroupForecast(a.Samples, r.location)
		return state

	case FetchFailed:
		return state

	case DisplayLockToggled:
		state.DisplayLocked = !state.DisplayLocked
		return state

	case CalendarSettingsLoaded:
		r.fx.PublishSelection(calendar.CollectSelectedIdentifiers(a.Groups))
		return state

	case EventHidden:
		if !r.fx.HideAt(displayed(state), a.Index) {
			return state
		}
		return r.refilter(state)

	case UndoRequested:
		r.fx.UndoAll()
		return r.refilter(state)

	default:
		return state
	}
}

func (r *Clock) refilter(state State) State {
	visible := r.fx.Visible(state.Fetched)
	state.Events = []EventSection{{Header: TodaySection, Items: visible}}
	state.HiddenCount = r.fx.HiddenCount()
	return state
}

// displayed flattens the visible rows in display order.
func displayed(state State) []events.Record {
	var rows []events.Record
	for _, section := range state.Events {
		rows = append(rows, section.Items...)
	}
	return rows
}

func refreshSections(sections []EventSection, now time.Time) []EventSection {
	if sections == nil {
		return nil
	}
	refreshed := make([]EventSection, len(sections))
	for i, section := range sections {
		refreshed[i] = EventSection{Header: section.Header, Items: events.RefreshRemaining(section.Items, now)}
	}
	return refreshed
}
