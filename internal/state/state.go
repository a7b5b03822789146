package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/reactor"
)

// Snapshot is the last clock screen state written by the run loop.
type Snapshot struct {
	UpdatedAt string        `json:"updatedAt" yaml:"updatedAt"`
	State     reactor.State `json:"state" yaml:"state"`

	Exists bool `json:"-" yaml:"-"`
}

func EnsureDirs(stateDir, settingsDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return nil
}

func SaveSnapshot(path string, st reactor.State, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	snapshot := Snapshot{
		UpdatedAt: now.UTC().Format(time.RFC3339),
		State:     st,
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return writeFileAtomically(path, append(payload, '\n'))
}

// LoadSnapshot reads the snapshot at path. A missing file is not an error;
// the returned snapshot has Exists false.
func LoadSnapshot(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{Exists: false}, nil
		}
		return Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot file: %w", err)
	}
	snapshot.Exists = true
	return snapshot, nil
}

func writeFileAtomically(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
