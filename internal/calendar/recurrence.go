package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const fallbackDuration = 30 * time.Minute

// ExpandEvents turns raw events into concrete occurrences overlapping
// [windowStart, windowEnd). Recurring masters are expanded and overrides
// keyed by RECURRENCE-ID replace the generated instance. Cancelled events
// and instances are dropped, as are duplicates after the first. The result
// is sorted by start; ties keep input order.
func ExpandEvents(events []RawEvent, windowStart, windowEnd time.Time) []Occurrence {
	if len(events) == 0 {
		return nil
	}

	overrides := make(map[string]RawEvent)
	for _, event := range events {
		if strings.TrimSpace(event.RRULE) == "" && strings.TrimSpace(event.RecurrenceID) != "" && event.UID != "" {
			overrides[overrideKeyForEvent(event)] = event
		}
	}
	usedOverrides := make(map[string]bool, len(overrides))

	occurrences := make([]Occurrence, 0, len(events))
	for _, event := range events {
		switch {
		case event.Cancelled() && strings.TrimSpace(event.RecurrenceID) == "":
			continue
		case strings.TrimSpace(event.RRULE) != "" && event.UID != "":
			occurrences = append(occurrences, expandMaster(event, overrides, usedOverrides, windowStart, windowEnd)...)
		case strings.TrimSpace(event.RecurrenceID) != "" && event.UID != "":
			// emitted below when no master claims it
		default:
			start, end := normalizedSpan(event.Start, event.End, fallbackDuration)
			if overlaps(start, end, windowStart, windowEnd) {
				occurrences = append(occurrences, occurrenceFromRaw(event, start, end))
			}
		}
	}

	for _, event := range events {
		if strings.TrimSpace(event.RRULE) != "" || strings.TrimSpace(event.RecurrenceID) == "" || event.UID == "" {
			continue
		}
		key := overrideKeyForEvent(event)
		if usedOverrides[key] {
			continue
		}
		usedOverrides[key] = true
		if event.Cancelled() {
			continue
		}
		start, end := normalizedSpan(event.Start, event.End, fallbackDuration)
		if overlaps(start, end, windowStart, windowEnd) {
			occurrences = append(occurrences, occurrenceFromRaw(event, start, end))
		}
	}

	unique := dedupeOccurrences(occurrences)
	SortOccurrences(unique)
	return unique
}

func expandMaster(master RawEvent, overrides map[string]RawEvent, used map[string]bool, windowStart, windowEnd time.Time) []Occurrence {
	duration := master.End.Sub(master.Start)
	if duration <= 0 {
		duration = fallbackDuration
	}

	results := make([]Occurrence, 0, 4)
	for _, start := range expandRRuleStarts(master, windowStart.Add(-duration), windowEnd) {
		key := overrideKey(master.CalendarUID, master.UID, start)
		if override, ok := overrides[key]; ok {
			used[key] = true
			if override.Cancelled() {
				continue
			}
			oStart, oEnd := normalizedSpan(override.Start, override.End, duration)
			if overlaps(oStart, oEnd, windowStart, windowEnd) {
				results = append(results, occurrenceFromRaw(override, oStart, oEnd))
			}
			continue
		}

		end := start.Add(duration)
		if overlaps(start, end, windowStart, windowEnd) {
			results = append(results, occurrenceFromRaw(master, start, end))
		}
	}
	return results
}

func expandRRuleStarts(event RawEvent, windowStart, windowEnd time.Time) []time.Time {
	opt, err := rrule.StrToROption(event.RRULE)
	if err != nil {
		return singleStart(event, windowStart, windowEnd)
	}

	opt.Dtstart = event.Start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return singleStart(event, windowStart, windowEnd)
	}

	set := &rrule.Set{}
	set.RRule(rule)
	for _, exdate := range event.ExDates {
		set.ExDate(exdate)
	}
	for _, rdate := range event.RDates {
		set.RDate(rdate)
	}

	starts := set.Between(windowStart, windowEnd, true)
	sort.Slice(starts, func(i, j int) bool {
		return starts[i].Before(starts[j])
	})
	return starts
}

func singleStart(event RawEvent, windowStart, windowEnd time.Time) []time.Time {
	start, end := normalizedSpan(event.Start, event.End, fallbackDuration)
	if !overlaps(start, end, windowStart, windowEnd) {
		return nil
	}
	return []time.Time{start}
}

func normalizedSpan(start, end time.Time, fallback time.Duration) (time.Time, time.Time) {
	if end.IsZero() || !end.After(start) {
		end = start.Add(fallback)
	}
	return start, end
}

func overlaps(start, end, windowStart, windowEnd time.Time) bool {
	return start.Before(windowEnd) && end.After(windowStart)
}

func occurrenceFromRaw(event RawEvent, start, end time.Time) Occurrence {
	return Occurrence{
		CalendarUID:   event.CalendarUID,
		CalendarName:  event.CalendarName,
		CalendarOwner: event.CalendarOwner,
		UID:           event.UID,
		Title:         sanitize(fallback(event.Summary, "Untitled")),
		Description:   strings.TrimSpace(event.Description),
		Location:      sanitize(event.Location),
		Start:         start,
		End:           end,
		AllDay:        event.AllDay,
	}
}

func dedupeOccurrences(items []Occurrence) []Occurrence {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	results := make([]Occurrence, 0, len(items))
	for _, item := range items {
		key := occurrenceKey(item)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, item)
	}
	return results
}

func occurrenceKey(item Occurrence) string {
	return strings.Join([]string{
		item.CalendarUID,
		item.UID,
		item.Start.UTC().Format(time.RFC3339Nano),
		item.End.UTC().Format(time.RFC3339Nano),
		item.Title,
	}, "|")
}

func overrideKeyForEvent(event RawEvent) string {
	if event.RecurrenceAt != nil {
		return overrideKey(event.CalendarUID, event.UID, *event.RecurrenceAt)
	}
	return overrideKey(event.CalendarUID, event.UID, event.Start)
}

func overrideKey(calendarUID, uid string, start time.Time) string {
	return fmt.Sprintf("%s|%s|%s", calendarUID, uid, start.UTC().Format(time.RFC3339Nano))
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}
