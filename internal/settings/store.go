// Package settings persists the calendar selection as a single JSON blob in
// a diskv store.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/peterbourgon/diskv/v3"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

// Key is the fixed blob name of the calendar settings.
const Key = "calendar-settings"

type Store struct {
	d      *diskv.Diskv
	logger *log.Logger
}

// Open returns a store rooted at dir, creating it if needed.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("settings: base path is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("settings: ensure base path: %w", err)
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 64 * 1024,
		}),
		logger: logger,
	}, nil
}

// Load returns the persisted groups. A missing or unreadable blob yields an
// empty slice.
func (s *Store) Load() []calendar.PersistedGroup {
	raw, err := s.d.Read(Key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read calendar settings", "err", err)
		}
		return []calendar.PersistedGroup{}
	}

	var groups []calendar.PersistedGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		s.logger.Warn("discarding malformed calendar settings", "err", err)
		return []calendar.PersistedGroup{}
	}
	if groups == nil {
		return []calendar.PersistedGroup{}
	}
	return groups
}

// Save overwrites the blob with groups.
func (s *Store) Save(groups []calendar.PersistedGroup) error {
	if groups == nil {
		groups = []calendar.PersistedGroup{}
	}
	raw, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode calendar settings: %w", err)
	}
	if err := s.d.Write(Key, raw); err != nil {
		return fmt.Errorf("write calendar settings: %w", err)
	}
	return nil
}

// Reset removes the blob so the next Load starts from defaults.
func (s *Store) Reset() error {
	if !s.d.Has(Key) {
		return nil
	}
	if err := s.d.Erase(Key); err != nil {
		return fmt.Errorf("erase calendar settings: %w", err)
	}
	return nil
}
