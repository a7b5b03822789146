package calendar

import (
	"sort"
	"time"
)

// SortOccurrences orders by start time. Equal starts keep their relative
// order.
func SortOccurrences(items []Occurrence) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start.Before(items[j].Start)
	})
}

// StartOfDay returns local midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
