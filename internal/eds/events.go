package eds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/ical"
)

const (
	calendarFactoryPath = "/org/gnome/evolution/dataserver/CalendarFactory"
	calendarIface       = "org.gnome.evolution.dataserver.Calendar"
)

// ListEvents returns the raw events of one calendar overlapping [from, to).
func (c *Client) ListEvents(ctx context.Context, calendarUID string, from, to time.Time) ([]calendar.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uid := strings.TrimSpace(calendarUID)
	if uid == "" {
		return nil, fmt.Errorf("calendar uid is required")
	}

	source := c.describe(uid)
	factory := c.conn.Object(c.calendarService, dbus.ObjectPath(calendarFactoryPath))

	objectPath, busName, err := openCalendar(ctx, factory, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source.Name, err)
	}

	calendarObj := c.conn.Object(busName, dbus.ObjectPath(objectPath))
	defer func() {
		_ = calendarObj.CallWithContext(ctx, calendarIface+".Close", 0)
	}()

	var properties []string
	if err := calendarObj.CallWithContext(ctx, calendarIface+".Open", 0).Store(&properties); err != nil {
		return nil, fmt.Errorf("%s: open backend: %w", source.Name, err)
	}

	var payloads []string
	if err := calendarObj.CallWithContext(ctx, calendarIface+".GetObjectList", 0, buildTimeRangeQuery(from, to)).Store(&payloads); err != nil {
		return nil, fmt.Errorf("%s: query: %w", source.Name, err)
	}

	events := make([]calendar.RawEvent, 0, len(payloads))
	for _, payload := range payloads {
		mapped, parseErr := ical.ParseComponent(source, payload)
		if parseErr != nil {
			c.logger.Debug("skipping unparsable event payload", "calendar", uid, "err", parseErr)
			continue
		}
		events = append(events, mapped...)
	}
	return events, nil
}

// describe returns the cached descriptor of uid from the last ListCalendars
// call, or a bare descriptor when the calendar was never listed.
func (c *Client) describe(uid string) calendar.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.known[uid]; ok {
		return d
	}
	return calendar.Descriptor{UID: uid, Name: uid}
}

func openCalendar(ctx context.Context, factory dbus.BusObject, sourceUID string) (objectPath string, busName string, err error) {
	if callErr := factory.CallWithContext(ctx, "org.gnome.evolution.dataserver.CalendarFactory.OpenCalendar", 0, sourceUID).Store(&objectPath, &busName); callErr != nil {
		return "", "", fmt.Errorf("OpenCalendar: %w", callErr)
	}
	if strings.TrimSpace(objectPath) == "" {
		return "", "", fmt.Errorf("OpenCalendar returned empty object path")
	}
	if strings.TrimSpace(busName) == "" {
		return "", "", fmt.Errorf("OpenCalendar returned empty bus name")
	}
	return objectPath, busName, nil
}

func buildTimeRangeQuery(from, to time.Time) string {
	start := from.UTC().Format("20060102T150405Z")
	end := to.UTC().Format("20060102T150405Z")
	return fmt.Sprintf("(occur-in-time-range? (make-time \"%s\") (make-time \"%s\"))", start, end)
}
