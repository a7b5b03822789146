package calendar

import (
	"sort"

	"github.com/thegreatkingbear/calendar-clock/internal/group"
)

// Reconcile groups freshly fetched calendars by owner and carries over the
// selection flag from persisted settings. The fetch is authoritative for
// names and identifiers; persisted state only decides Selected. Calendars
// with no persisted counterpart are selected.
func Reconcile(fetched []Descriptor, persisted []PersistedGroup) []Group {
	if len(fetched) == 0 {
		return nil
	}

	sorted := append([]Descriptor(nil), fetched...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Owner < sorted[j].Owner
	})

	saved := persistedSelection(persisted)

	runs := group.Adjacent(sorted, func(d Descriptor) string { return d.Owner })
	groups := make([]Group, 0, len(runs))
	for _, run := range runs {
		items := make([]Descriptor, 0, len(run.Items))
		for _, item := range run.Items {
			item.Selected = true
			if selected, ok := saved[selectionKey{header: run.Key, uid: item.UID}]; ok {
				item.Selected = selected
			}
			items = append(items, item)
		}
		groups = append(groups, Group{Header: run.Key, Items: items})
	}
	return groups
}

type selectionKey struct {
	header string
	uid    string
}

func persistedSelection(persisted []PersistedGroup) map[selectionKey]bool {
	saved := make(map[selectionKey]bool)
	for _, g := range persisted {
		for _, item := range g.Items {
			if item.UID == "" {
				continue
			}
			saved[selectionKey{header: g.Header, uid: item.UID}] = item.Selected
		}
	}
	return saved
}

// CollectSelectedIdentifiers flattens the UIDs of every selected calendar.
func CollectSelectedIdentifiers(groups []Group) IdentifierSet {
	set := make(IdentifierSet)
	for _, g := range groups {
		for _, item := range g.Items {
			if item.Selected {
				set[item.UID] = struct{}{}
			}
		}
	}
	return set
}

// Toggle flips the selection of the calendar with the given UID. The input
// is left untouched; ok is false when no calendar matches.
func Toggle(groups []Group, uid string) (updated []Group, ok bool) {
	return update(groups, uid, func(selected bool) bool { return !selected })
}

func SetSelected(groups []Group, uid string, selected bool) (updated []Group, ok bool) {
	return update(groups, uid, func(bool) bool { return selected })
}

func update(groups []Group, uid string, next func(bool) bool) ([]Group, bool) {
	updated := make([]Group, len(groups))
	found := false
	for i, g := range groups {
		items := append([]Descriptor(nil), g.Items...)
		for j := range items {
			if items[j].UID == uid {
				items[j].Selected = next(items[j].Selected)
				found = true
			}
		}
		updated[i] = Group{Header: g.Header, Items: items}
	}
	if !found {
		return groups, false
	}
	return updated, true
}

// Find returns the calendar with the given UID.
func Find(groups []Group, uid string) (Descriptor, bool) {
	for _, g := range groups {
		for _, item := range g.Items {
			if item.UID == uid {
				return item, true
			}
		}
	}
	return Descriptor{}, false
}
