// Package clock formats the time and date lines of the display.
package clock

import (
	"strings"
	"time"
)

const (
	DefaultTimeLayout = "15:04:05"
	DefaultDateLayout = "Mon, Jan 2"
)

type Clock struct {
	TimeLayout string
	DateLayout string
	Location   *time.Location
}

// Reading is what the display shows for one tick.
type Reading struct {
	Time  string `json:"time" yaml:"time"`
	Date  string `json:"date" yaml:"date"`
	Blink bool   `json:"blink" yaml:"blink"`
}

func New(timeLayout string, dateLayout string, loc *time.Location) Clock {
	if strings.TrimSpace(timeLayout) == "" {
		timeLayout = DefaultTimeLayout
	}
	if strings.TrimSpace(dateLayout) == "" {
		dateLayout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.Local
	}
	return Clock{TimeLayout: timeLayout, DateLayout: dateLayout, Location: loc}
}

// Read formats now. With blink off the time separators are blanked so the
// colon flashes once per second.
func (c Clock) Read(now time.Time, blink bool) Reading {
	local := now.In(c.location())
	text := local.Format(c.TimeLayout)
	if !blink {
		text = strings.ReplaceAll(text, ":", " ")
	}
	return Reading{
		Time:  text,
		Date:  local.Format(c.DateLayout),
		Blink: blink,
	}
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}
