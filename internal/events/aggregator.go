// Package events fetches today's events from the selected calendars and
// keeps the client-side hide/undo state.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/signal"
)

// Source lists raw events of a single calendar.
type Source interface {
	ListEvents(ctx context.Context, calendarUID string, from, to time.Time) ([]calendar.RawEvent, error)
}

// Aggregator owns the selected-calendar set and the set of hidden events.
// Both are only reachable through its methods.
type Aggregator struct {
	source    Source
	logger    *log.Logger
	selection *signal.Signal[calendar.IdentifierSet]

	mu     sync.Mutex
	edited map[string]struct{}
}

func NewAggregator(source Source, logger *log.Logger) *Aggregator {
	return &Aggregator{
		source:    source,
		logger:    logger,
		selection: signal.New[calendar.IdentifierSet](),
		edited:    make(map[string]struct{}),
	}
}

// PublishSelection replaces the selected-calendar set and notifies
// subscribers. Call it after every single selection change.
func (a *Aggregator) PublishSelection(ids calendar.IdentifierSet) {
	a.selection.Publish(copySet(ids))
}

// Selection returns the current set. ok is false until the first publish.
func (a *Aggregator) Selection() (calendar.IdentifierSet, bool) {
	ids, ok := a.selection.Value()
	return copySet(ids), ok
}

func (a *Aggregator) SelectionChanges(ctx context.Context) <-chan calendar.IdentifierSet {
	return a.selection.Subscribe(ctx)
}

// Close ends all selection subscriptions.
func (a *Aggregator) Close() {
	a.selection.Close()
}

// Fetch queries the selected calendars for window and returns the
// occurrences sorted by start. Hidden records are not filtered here; see
// Visible. A failing calendar is logged and skipped unless every calendar
// failed.
func (a *Aggregator) Fetch(ctx context.Context, selected calendar.IdentifierSet, window Window) ([]Record, error) {
	if len(selected) == 0 {
		return []Record{}, nil
	}

	raw := make([]calendar.RawEvent, 0, 32)
	var errs []error
	for _, uid := range selected.Sorted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := a.source.ListEvents(ctx, uid, window.From, window.To)
		if err != nil {
			a.logger.Warn("calendar query failed", "calendar", uid, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", uid, err))
			continue
		}
		raw = append(raw, events...)
	}

	if len(errs) == len(selected) {
		return nil, fmt.Errorf("query calendars: %w", errors.Join(errs...))
	}

	occurrences := calendar.ExpandEvents(raw, window.From, window.To)
	records := make([]Record, 0, len(occurrences))
	for _, o := range occurrences {
		records = append(records, recordFromOccurrence(o))
	}
	return records, nil
}

// FetchToday fetches the local day around now using the published
// selection. Before any selection is published nothing is queried.
func (a *Aggregator) FetchToday(ctx context.Context, now time.Time) ([]Record, error) {
	selected, _ := a.Selection()
	records, err := a.Fetch(ctx, selected, Today(now))
	if err != nil {
		return nil, err
	}
	return RefreshRemaining(records, now), nil
}

// Hide excludes the record with id from subsequent Visible calls.
func (a *Aggregator) Hide(id string) {
	if id == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.edited[id] = struct{}{}
}

// HideAt hides records[index]. An index that no longer exists is ignored.
func (a *Aggregator) HideAt(records []Record, index int) bool {
	if index < 0 || index >= len(records) {
		return false
	}
	a.Hide(records[index].ID)
	return true
}

// UndoAll forgets every hidden record at once.
func (a *Aggregator) UndoAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.edited = make(map[string]struct{})
}

func (a *Aggregator) HiddenCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.edited)
}

// Visible drops hidden records, keeping order.
func (a *Aggregator) Visible(records []Record) []Record {
	a.mu.Lock()
	defer a.mu.Unlock()

	visible := make([]Record, 0, len(records))
	for _, r := range records {
		if _, hidden := a.edited[r.ID]; hidden {
			continue
		}
		visible = append(visible, r)
	}
	return visible
}

func copySet(ids calendar.IdentifierSet) calendar.IdentifierSet {
	if ids == nil {
		return calendar.IdentifierSet{}
	}
	out := make(calendar.IdentifierSet, len(ids))
	for id := range ids {
		out[id] = struct{}{}
	}
	return out
}
