package eds

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"gopkg.in/ini.v1"
)

type sourceEntry struct {
	UID string

	DisplayName string
	ParentUID   string
	Enabled     bool

	HasCalendar      bool
	CalendarEnabled  bool
	CalendarSelected bool
	CalendarBackend  string
	CalendarColor    string
}

const localOwner = "On This Computer"

// ListCalendars returns every enabled calendar source. Owner is the parent
// account's display name, or localOwner for standalone sources.
func (c *Client) ListCalendars(ctx context.Context) ([]calendar.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sourceObj := c.conn.Object(c.sourceService, dbus.ObjectPath("/org/gnome/evolution/dataserver/SourceManager"))

	managed := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	if err := sourceObj.CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&managed); err != nil {
		return nil, fmt.Errorf("eds GetManagedObjects: %w", err)
	}

	entries := make(map[string]sourceEntry)
	for _, ifaceMap := range managed {
		sourceProps, ok := ifaceMap["org.gnome.evolution.dataserver.Source"]
		if !ok {
			continue
		}

		uid := variantString(sourceProps, "UID")
		data := variantString(sourceProps, "Data")
		if strings.TrimSpace(uid) == "" || strings.TrimSpace(data) == "" {
			continue
		}

		entry, err := parseSourceEntry(uid, data)
		if err != nil {
			c.logger.Debug("skipping unparsable eds source", "uid", uid, "err", err)
			continue
		}
		entries[uid] = entry
	}

	calendars := descriptorsFromEntries(entries)

	c.mu.Lock()
	c.known = make(map[string]calendar.Descriptor, len(calendars))
	for _, d := range calendars {
		c.known[d.UID] = d
	}
	c.mu.Unlock()

	return calendars, nil
}

func descriptorsFromEntries(entries map[string]sourceEntry) []calendar.Descriptor {
	calendars := make([]calendar.Descriptor, 0, len(entries))
	for _, entry := range entries {
		if !entry.HasCalendar || !entry.Enabled || !entry.CalendarEnabled {
			continue
		}

		calendars = append(calendars, calendar.Descriptor{
			Owner:    fallback(accountName(entry, entries), localOwner),
			Name:     fallback(entry.DisplayName, entry.UID),
			UID:      entry.UID,
			Selected: entry.CalendarSelected,
			Backend:  strings.TrimSpace(entry.CalendarBackend),
			Color:    strings.TrimSpace(entry.CalendarColor),
			Enabled:  true,
		})
	}

	// Map iteration is random; fix an order so reconcile output is stable.
	slices.SortStableFunc(calendars, func(a, b calendar.Descriptor) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.UID, b.UID),
		)
	})
	return calendars
}

// dataSourceSection and calendarSection mirror the EDS .source key file.
// Field values set before MapTo act as defaults for absent keys.
type dataSourceSection struct {
	DisplayName string `ini:"DisplayName"`
	Parent      string `ini:"Parent"`
	Enabled     bool   `ini:"Enabled"`
}

type calendarSection struct {
	BackendName string `ini:"BackendName"`
	Color       string `ini:"Color"`
	Enabled     bool   `ini:"Enabled"`
	Selected    bool   `ini:"Selected"`
}

func parseSourceEntry(uid, data string) (sourceEntry, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, []byte(data))
	if err != nil {
		return sourceEntry{}, err
	}

	ds := dataSourceSection{Enabled: true}
	if err := cfg.Section("Data Source").MapTo(&ds); err != nil {
		return sourceEntry{}, fmt.Errorf("map data source section: %w", err)
	}
	entry := sourceEntry{
		UID:         uid,
		DisplayName: strings.TrimSpace(ds.DisplayName),
		ParentUID:   strings.TrimSpace(ds.Parent),
		Enabled:     ds.Enabled,
	}

	if !cfg.HasSection("Calendar") {
		return entry, nil
	}
	cs := calendarSection{Enabled: true}
	if err := cfg.Section("Calendar").MapTo(&cs); err != nil {
		return sourceEntry{}, fmt.Errorf("map calendar section: %w", err)
	}
	entry.HasCalendar = true
	entry.CalendarEnabled = cs.Enabled
	entry.CalendarSelected = cs.Selected
	entry.CalendarBackend = strings.TrimSpace(cs.BackendName)
	entry.CalendarColor = strings.TrimSpace(cs.Color)
	return entry, nil
}

func variantString(props map[string]dbus.Variant, key string) string {
	if value, ok := props[key]; ok {
		if text, ok := value.Value().(string); ok {
			return text
		}
	}
	return ""
}

// accountName is the display name of the account owning entry. Local
// sources hang off "*-stub" parents, which have no useful name.
func accountName(entry sourceEntry, entries map[string]sourceEntry) string {
	parent, ok := entries[entry.ParentUID]
	if entry.ParentUID == "" || strings.HasSuffix(entry.ParentUID, "-stub") || !ok {
		return ""
	}
	name := strings.TrimSpace(parent.DisplayName)
	if strings.HasSuffix(strings.ToLower(name), "stub") {
		return ""
	}
	return name
}

func fallback(value, fallbackValue string) string {
	if strings.TrimSpace(value) == "" {
		return fallbackValue
	}
	return value
}
