// Package reactor holds the pure state reducers of the clock screen and the
// calendar settings screen. Side effects go through the Effects interfaces.
package reactor

import (
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/events"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

// Action is anything the runtime loop feeds to a reducer.
type Action interface {
	action()
}

// FetchKind names one kind of background fetch.
type FetchKind string

const (
	FetchEvents    FetchKind = "events"
	FetchWeather   FetchKind = "weather"
	FetchForecast  FetchKind = "forecast"
	FetchCalendars FetchKind = "calendars"
)

type (
	Clicked struct {
		Now time.Time
	}
	EventsReceived struct {
		Records []events.Record
	}
	WeatherReceived struct {
		Sample weather.Sample
	}
	ForecastReceived struct {
		Samples []weather.Sample
	}
	FetchFailed struct {
		Kind FetchKind
		Err  error
	}
	DisplayLockToggled struct{}
	CalendarSettingsLoaded struct {
		Groups []calendar.Group
	}
	EventHidden struct {
		Index int
	}
	UndoRequested struct{}

	CalendarsFetched struct {
		Groups []calendar.Group
	}
	CalendarToggled struct {
		Identifier string
	}
)

func (Clicked) action()                {}
func (EventsReceived) action()         {}
func (WeatherReceived) action()        {}
func (ForecastReceived) action()       {}
func (FetchFailed) action()            {}
func (DisplayLockToggled) action()     {}
func (CalendarSettingsLoaded) action() {}
func (EventHidden) action()            {}
func (UndoRequested) action()          {}
func (CalendarsFetched) action()       {}
func (CalendarToggled) action()        {}
