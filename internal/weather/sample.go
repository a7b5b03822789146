// Package weather fetches current conditions and the multi-day forecast and
// groups forecast samples by local day.
package weather

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/group"
)

// Sample is one observation or forecast point.
type Sample struct {
	Description string  `json:"description" yaml:"description"`
	Icon        string  `json:"icon" yaml:"icon"`
	ConditionID int     `json:"conditionId" yaml:"conditionId"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	FeelsLike   float64 `json:"feelsLike" yaml:"feelsLike"`
	Humidity    int     `json:"humidity" yaml:"humidity"`
	Epoch       int64   `json:"epoch" yaml:"epoch"`
}

// TemperatureCelsius is the temperature rounded half away from zero.
func (s Sample) TemperatureCelsius() int {
	return int(math.Round(s.Temperature))
}

func (s Sample) TemperatureText() string {
	return fmt.Sprintf("%d°", s.TemperatureCelsius())
}

func (s Sample) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(s.Epoch, 0).In(loc)
}

// Day is the day of month in loc.
func (s Sample) Day(loc *time.Location) int {
	return s.Time(loc).Day()
}

// Weekday is the abbreviated weekday name in loc, e.g. "Mon".
func (s Sample) Weekday(loc *time.Location) string {
	return s.Time(loc).Format("Mon")
}

// Hour is the zero-padded hour in loc.
func (s Sample) Hour(loc *time.Location) string {
	return fmt.Sprintf("%02d", s.Time(loc).Hour())
}

// Group holds the forecast samples of one local day.
type Group struct {
	Day     int      `json:"day" yaml:"day"`
	Weekday string   `json:"weekday" yaml:"weekday"`
	Items   []Sample `json:"items" yaml:"items"`
}

type dayKey struct {
	day     int
	weekday string
}

// GroupForecast orders samples chronologically and splits them into runs
// of the same local day. Items keep their relative order within a group.
func GroupForecast(samples []Sample, loc *time.Location) []Group {
	if len(samples) == 0 {
		return []Group{}
	}

	sorted := append([]Sample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Epoch < sorted[j].Epoch
	})

	runs := group.Adjacent(sorted, func(s Sample) dayKey {
		return dayKey{day: s.Day(loc), weekday: s.Weekday(loc)}
	})

	groups := make([]Group, 0, len(runs))
	for _, run := range runs {
		groups = append(groups, Group{Day: run.Key.day, Weekday: run.Key.weekday, Items: run.Items})
	}
	return groups
}
