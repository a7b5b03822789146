package events

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

// AllDayThreshold is the shortest span rendered as "all day".
const AllDayThreshold = 1439 * time.Minute

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("calendar-clock/events"))

// Record is one displayable event instance.
type Record struct {
	ID           string    `json:"id" yaml:"id"`
	CalendarUID  string    `json:"calendarUid" yaml:"calendarUid"`
	CalendarName string    `json:"calendarName" yaml:"calendarName"`
	Title        string    `json:"title" yaml:"title"`
	Location     string    `json:"location,omitempty" yaml:"location,omitempty"`
	Start        time.Time `json:"start" yaml:"start"`
	End          time.Time `json:"end" yaml:"end"`
	AllDay       bool      `json:"allDay" yaml:"allDay"`

	RemainingSeconds int     `json:"remainingSeconds" yaml:"remainingSeconds"`
	Progress         float64 `json:"progress" yaml:"progress"`
	ShowProgress     bool    `json:"showProgress" yaml:"showProgress"`
}

func (r Record) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// RecordID derives a stable identifier for an occurrence. Events that carry
// a UID are keyed by calendar, UID and instance start; the rest fall back to
// title and span.
func RecordID(o calendar.Occurrence) string {
	var name string
	if strings.TrimSpace(o.UID) != "" {
		name = strings.Join([]string{"uid", o.CalendarUID, o.UID, o.Start.UTC().Format(time.RFC3339)}, "|")
	} else {
		name = strings.Join([]string{"value", o.Title, o.Start.UTC().Format(time.RFC3339), o.End.UTC().Format(time.RFC3339)}, "|")
	}
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

func recordFromOccurrence(o calendar.Occurrence) Record {
	return Record{
		ID:           RecordID(o),
		CalendarUID:  o.CalendarUID,
		CalendarName: o.CalendarName,
		Title:        o.Title,
		Location:     o.Location,
		Start:        o.Start,
		End:          o.End,
		AllDay:       o.AllDay || o.End.Sub(o.Start) >= AllDayThreshold,
	}
}

// RefreshRemaining recomputes the countdown fields of every record against
// now. It returns a new slice.
func RefreshRemaining(records []Record, now time.Time) []Record {
	if records == nil {
		return nil
	}

	refreshed := make([]Record, len(records))
	for i, r := range records {
		duration := r.End.Sub(r.Start)
		remaining := r.End.Sub(now)

		r.RemainingSeconds = int(math.Floor(remaining.Seconds()))
		r.AllDay = r.AllDay || duration >= AllDayThreshold
		if duration > 0 {
			r.Progress = 1 - remaining.Seconds()/duration.Seconds()
		} else {
			r.Progress = -1
		}
		r.ShowProgress = !r.AllDay && r.Progress >= 0 && r.Progress <= 1
		refreshed[i] = r
	}
	return refreshed
}
