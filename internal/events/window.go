package events

import (
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

// Window is the half-open range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Today is the local day containing now, in now's location.
func Today(now time.Time) Window {
	start := calendar.StartOfDay(now)
	return Window{From: start, To: start.AddDate(0, 0, 1)}
}
