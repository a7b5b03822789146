package calendar

import (
	"sort"
	"strings"
	"time"
)

// Descriptor is one calendar as reported by a calendar source. Identity is
// the UID; Selected is overwritten from persisted settings on reconcile.
type Descriptor struct {
	Owner    string `json:"owner" yaml:"owner"`
	Name     string `json:"name" yaml:"name"`
	UID      string `json:"identifier" yaml:"identifier"`
	Selected bool   `json:"isSelected" yaml:"isSelected"`

	Color   string `json:"color,omitempty" yaml:"color,omitempty"`
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Group is a run of calendars sharing an owner.
type Group struct {
	Header string       `json:"header" yaml:"header"`
	Items  []Descriptor `json:"items" yaml:"items"`
}

// PersistedGroup is the durable form of a Group.
type PersistedGroup struct {
	Header string       `json:"header" yaml:"header"`
	Items  []Descriptor `json:"items" yaml:"items"`
}

// Equal compares header and item identity. Selection flags are ignored.
func (g PersistedGroup) Equal(other PersistedGroup) bool {
	if g.Header != other.Header || len(g.Items) != len(other.Items) {
		return false
	}
	for i := range g.Items {
		a, b := g.Items[i], other.Items[i]
		if a.UID != b.UID || a.Name != b.Name || a.Owner != b.Owner {
			return false
		}
	}
	return true
}

func ToPersisted(groups []Group) []PersistedGroup {
	if len(groups) == 0 {
		return []PersistedGroup{}
	}
	persisted := make([]PersistedGroup, 0, len(groups))
	for _, g := range groups {
		persisted = append(persisted, PersistedGroup{Header: g.Header, Items: append([]Descriptor(nil), g.Items...)})
	}
	return persisted
}

// IdentifierSet is a set of calendar UIDs.
type IdentifierSet map[string]struct{}

func NewIdentifierSet(uids ...string) IdentifierSet {
	set := make(IdentifierSet, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	return set
}

func (s IdentifierSet) Has(uid string) bool {
	_, ok := s[uid]
	return ok
}

func (s IdentifierSet) Sorted() []string {
	uids := make([]string, 0, len(s))
	for uid := range s {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

func (s IdentifierSet) Equal(other IdentifierSet) bool {
	if len(s) != len(other) {
		return false
	}
	for uid := range s {
		if !other.Has(uid) {
			return false
		}
	}
	return true
}

type RawEvent struct {
	CalendarUID   string
	CalendarName  string
	CalendarOwner string

	UID          string
	RecurrenceID string
	RecurrenceAt *time.Time

	Summary     string
	Description string
	Location    string
	Status      string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRULE   string
	RDates  []time.Time
	ExDates []time.Time
}

// Cancelled reports STATUS:CANCELLED. A cancelled override removes its
// instance from the series.
func (e RawEvent) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "CANCELLED")
}

type Occurrence struct {
	CalendarUID   string    `json:"calendarUid" yaml:"calendarUid"`
	CalendarName  string    `json:"calendarName" yaml:"calendarName"`
	CalendarOwner string    `json:"calendarOwner,omitempty" yaml:"calendarOwner,omitempty"`
	UID           string    `json:"uid" yaml:"uid"`
	Title         string    `json:"title" yaml:"title"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	Location      string    `json:"location,omitempty" yaml:"location,omitempty"`
	Start         time.Time `json:"start" yaml:"start"`
	End           time.Time `json:"end" yaml:"end"`
	AllDay        bool      `json:"allDay" yaml:"allDay"`
}
