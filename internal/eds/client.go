// Package eds reads calendars and events from Evolution Data Server over the
// D-Bus session bus.
package eds

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

const (
	sourceServicePrefix   = "org.gnome.evolution.dataserver.Sources"
	calendarServicePrefix = "org.gnome.evolution.dataserver.Calendar"
)

// ErrUnavailable means the session bus or the EDS services cannot be
// reached. Callers treat it as "calendar access not granted".
var ErrUnavailable = errors.New("evolution data server unavailable")

type Client struct {
	conn            *dbus.Conn
	sourceService   string
	calendarService string
	logger          *log.Logger

	mu    sync.Mutex
	known map[string]calendar.Descriptor
}

func New(ctx context.Context, logger *log.Logger) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: connect session bus: %v", ErrUnavailable, err)
	}

	sourceService, err := findServiceName(ctx, conn, sourceServicePrefix)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	calendarService, err := findServiceName(ctx, conn, calendarServicePrefix)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Client{
		conn:            conn,
		sourceService:   sourceService,
		calendarService: calendarService,
		logger:          logger,
		known:           make(map[string]calendar.Descriptor),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func findServiceName(ctx context.Context, conn *dbus.Conn, prefix string) (string, error) {
	dbusObj := conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")

	for _, method := range []string{"org.freedesktop.DBus.ListNames", "org.freedesktop.DBus.ListActivatableNames"} {
		var names []string
		if err := dbusObj.CallWithContext(ctx, method, 0).Store(&names); err != nil {
			continue
		}
		if best := bestMatchingService(names, prefix); best != "" {
			return best, nil
		}
	}

	return "", fmt.Errorf("%w: dbus service with prefix %q not found", ErrUnavailable, prefix)
}

// bestMatchingService prefers the highest versioned name, e.g.
// "...Calendar8" over "...Calendar7".
func bestMatchingService(names []string, prefix string) string {
	matches := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}

	sort.SliceStable(matches, func(i, j int) bool {
		versionI := serviceVersion(matches[i], prefix)
		versionJ := serviceVersion(matches[j], prefix)
		if versionI != versionJ {
			return versionI > versionJ
		}
		return matches[i] < matches[j]
	})
	return matches[0]
}

func serviceVersion(name, prefix string) int {
	version, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, prefix)))
	if err != nil {
		return 0
	}
	return version
}
