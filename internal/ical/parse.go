// Package ical maps iCalendar VEVENT payloads onto calendar.RawEvent.
package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

// ParseCalendar reads a full VCALENDAR document.
func ParseCalendar(source calendar.Descriptor, r io.Reader) ([]calendar.RawEvent, error) {
	parsed, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}
	return mapEvents(source, parsed.Events()), nil
}

// ParseComponent reads a bare VEVENT payload, as returned by EDS.
func ParseComponent(source calendar.Descriptor, payload string) ([]calendar.RawEvent, error) {
	wrapped := "BEGIN:VCALENDAR\n" + strings.TrimSpace(payload) + "\nEND:VCALENDAR\n"
	return ParseCalendar(source, strings.NewReader(wrapped))
}

// CalendarName returns X-WR-CALNAME of a VCALENDAR document, if any.
func CalendarName(r io.Reader) (string, error) {
	parsed, err := ics.ParseCalendar(r)
	if err != nil {
		return "", fmt.Errorf("parse ics: %w", err)
	}
	for _, prop := range parsed.CalendarProperties {
		if strings.EqualFold(prop.IANAToken, "X-WR-CALNAME") {
			return sanitize(prop.Value), nil
		}
	}
	return "", nil
}

func mapEvents(source calendar.Descriptor, events []*ics.VEvent) []calendar.RawEvent {
	if len(events) == 0 {
		return nil
	}

	results := make([]calendar.RawEvent, 0, len(events))
	for _, event := range events {
		raw, err := mapEvent(source, event)
		if err != nil {
			continue
		}
		results = append(results, raw)
	}
	return results
}

func mapEvent(source calendar.Descriptor, event *ics.VEvent) (calendar.RawEvent, error) {
	start, err := event.GetStartAt()
	if err != nil {
		return calendar.RawEvent{}, err
	}

	allDay := isAllDay(event.GetProperty(ics.ComponentPropertyDtStart))
	if allDay {
		start = asLocalDate(start)
	}

	end, err := event.GetEndAt()
	switch {
	case err != nil && allDay:
		end = start.AddDate(0, 0, 1)
	case err != nil || !end.After(start):
		end = start.Add(30 * time.Minute)
	case allDay:
		end = asLocalDate(end)
	}

	var recurrenceAt *time.Time
	recurrenceIDProp := event.GetProperty(ics.ComponentPropertyRecurrenceId)
	if recurrenceIDProp != nil {
		if parsed, parseErr := parseTimeValue(recurrenceIDProp.Value, recurrenceIDProp.ICalParameters); parseErr == nil {
			recurrenceAt = &parsed
		}
	}

	return calendar.RawEvent{
		CalendarUID:   source.UID,
		CalendarName:  source.Name,
		CalendarOwner: source.Owner,
		UID:           strings.TrimSpace(propertyValue(event.GetProperty(ics.ComponentPropertyUniqueId))),
		RecurrenceID:  strings.TrimSpace(propertyValue(recurrenceIDProp)),
		RecurrenceAt:  recurrenceAt,
		Summary:       sanitize(propertyValue(event.GetProperty(ics.ComponentPropertySummary))),
		Description:   strings.TrimSpace(propertyValue(event.GetProperty(ics.ComponentPropertyDescription))),
		Location:      sanitize(propertyValue(event.GetProperty(ics.ComponentPropertyLocation))),
		Status:        sanitize(propertyValue(event.GetProperty(ics.ComponentPropertyStatus))),
		Start:         start,
		End:           end,
		AllDay:        allDay,
		RRULE:         strings.TrimSpace(propertyValue(event.GetProperty(ics.ComponentPropertyRrule))),
		RDates:        collectDateTimes(event.GetProperties(ics.ComponentPropertyRdate)),
		ExDates:       collectDateTimes(event.GetProperties(ics.ComponentPropertyExdate)),
	}, nil
}

// asLocalDate keeps the calendar date of an all-day value but anchors it to
// local midnight, so "today" windows line up with the wall clock.
func asLocalDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func collectDateTimes(properties []*ics.IANAProperty) []time.Time {
	if len(properties) == 0 {
		return nil
	}

	results := make([]time.Time, 0, len(properties))
	for _, property := range properties {
		if property == nil {
			continue
		}
		for _, value := range strings.Split(property.Value, ",") {
			parsed, err := parseTimeValue(value, property.ICalParameters)
			if err != nil {
				continue
			}
			results = append(results, parsed)
		}
	}
	return results
}

var timeLayouts = []string{
	"20060102T150405Z",
	"20060102T1504Z",
	"20060102T150405",
	"20060102T1504",
	"20060102",
}

func parseTimeValue(value string, params map[string][]string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}

	loc := time.Local
	if tzIDs, ok := params["TZID"]; ok && len(tzIDs) > 0 && strings.TrimSpace(tzIDs[0]) != "" {
		if loaded, err := time.LoadLocation(strings.TrimSpace(tzIDs[0])); err == nil {
			loc = loaded
		}
	}

	for _, layout := range timeLayouts {
		if strings.HasSuffix(layout, "Z") {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, nil
			}
			continue
		}
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time value %q", trimmed)
}

func isAllDay(property *ics.IANAProperty) bool {
	if property == nil {
		return false
	}
	for _, value := range property.ICalParameters["VALUE"] {
		if strings.EqualFold(strings.TrimSpace(value), "DATE") {
			return true
		}
	}
	return len(strings.TrimSpace(property.Value)) == 8
}

func propertyValue(property *ics.IANAProperty) string {
	if property == nil {
		return ""
	}
	return property.Value
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}
