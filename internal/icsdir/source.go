// Package icsdir serves calendars from a directory of .ics files. Files in
// the root belong to DefaultOwner; files in a subdirectory belong to an
// owner named after that subdirectory. The calendar UID is the path of the
// file relative to the root.
package icsdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/ical"
)

const DefaultOwner = "Local"

var ErrNotDirectory = errors.New("ics path is not a directory")

type Source struct {
	root   string
	logger *log.Logger
}

// Open checks that root is a readable directory.
func Open(root string, logger *log.Logger) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open ics dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return &Source{root: filepath.Clean(root), logger: logger}, nil
}

func (s *Source) Root() string {
	return s.root
}

func (s *Source) ListCalendars(ctx context.Context) ([]calendar.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	calendars := make([]calendar.Descriptor, 0, 8)
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && filepath.Dir(path) != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !isCalendarFile(path) {
			return nil
		}

		descriptor, descErr := s.describe(path)
		if descErr != nil {
			s.logger.Warn("skipping unreadable calendar file", "path", path, "err", descErr)
			return nil
		}
		calendars = append(calendars, descriptor)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk ics dir: %w", err)
	}

	sort.SliceStable(calendars, func(i, j int) bool {
		return strings.ToLower(calendars[i].Name) < strings.ToLower(calendars[j].Name)
	})
	return calendars, nil
}

// ListEvents returns the raw events of one calendar file. Recurring masters
// are returned whole; the caller expands them against [from, to).
func (s *Source) ListEvents(ctx context.Context, calendarUID string, from, to time.Time) ([]calendar.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.pathFor(calendarUID)
	if err != nil {
		return nil, err
	}

	descriptor, err := s.describe(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calendar %s: %w", calendarUID, err)
	}
	defer func() {
		_ = file.Close()
	}()

	events, err := ical.ParseCalendar(descriptor, file)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", calendarUID, err)
	}

	filtered := events[:0]
	for _, event := range events {
		// An override may move an instance out of the window; it still has
		// to reach expansion to suppress the original slot.
		if event.RecurrenceID != "" {
			filtered = append(filtered, event)
			continue
		}
		if event.RRULE == "" && len(event.RDates) == 0 && !event.End.After(from) {
			continue
		}
		if event.RRULE == "" && !event.Start.Before(to) {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered, nil
}

func (s *Source) describe(path string) (calendar.Descriptor, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return calendar.Descriptor{}, fmt.Errorf("relative path: %w", err)
	}
	uid := filepath.ToSlash(rel)

	owner := DefaultOwner
	if dir := filepath.Dir(rel); dir != "." {
		owner = dir
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	file, err := os.Open(path)
	if err != nil {
		return calendar.Descriptor{}, fmt.Errorf("open calendar file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	if calName, nameErr := ical.CalendarName(file); nameErr == nil && calName != "" {
		name = calName
	} else if nameErr != nil {
		return calendar.Descriptor{}, nameErr
	}

	return calendar.Descriptor{
		Owner:    owner,
		Name:     name,
		UID:      uid,
		Selected: true,
		Backend:  "ics",
		Enabled:  true,
	}, nil
}

func (s *Source) pathFor(calendarUID string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(calendarUID)))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid calendar uid %q", calendarUID)
	}
	return filepath.Join(s.root, clean), nil
}

func isCalendarFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ics")
}
