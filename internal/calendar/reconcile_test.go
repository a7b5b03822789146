package calendar

import "testing"

func TestReconcile_AppliesPersistedSelection(t *testing.T) {
	t.Parallel()

	fetched := []Descriptor{
		{Owner: "A", Name: "Work", UID: "1"},
		{Owner: "B", Name: "Home", UID: "2"},
	}
	persisted := []PersistedGroup{
		{Header: "A", Items: []Descriptor{{UID: "1", Selected: false}}},
	}

	groups := Reconcile(fetched, persisted)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Header != "A" || len(groups[0].Items) != 1 || groups[0].Items[0].UID != "1" || groups[0].Items[0].Selected {
		t.Fatalf("unexpected group A: %+v", groups[0])
	}
	if groups[1].Header != "B" || len(groups[1].Items) != 1 || groups[1].Items[0].UID != "2" || !groups[1].Items[0].Selected {
		t.Fatalf("unexpected group B: %+v", groups[1])
	}
}

func TestReconcile_GroupsByOwnerKeepingFetchOrder(t *testing.T) {
	t.Parallel()

	fetched := []Descriptor{
		{Owner: "b@example.com", Name: "Second", UID: "b2"},
		{Owner: "a@example.com", Name: "Only", UID: "a1"},
		{Owner: "b@example.com", Name: "First", UID: "b1"},
		{Owner: "B@example.com", Name: "Upper", UID: "B1"},
	}

	groups := Reconcile(fetched, nil)

	wantHeaders := []string{"B@example.com", "a@example.com", "b@example.com"}
	if len(groups) != len(wantHeaders) {
		t.Fatalf("expected %d groups, got %d", len(wantHeaders), len(groups))
	}
	for i, header := range wantHeaders {
		if groups[i].Header != header {
			t.Fatalf("group %d header = %q, want %q", i, groups[i].Header, header)
		}
		for _, item := range groups[i].Items {
			if item.Owner != header {
				t.Fatalf("item %q in wrong group %q", item.UID, header)
			}
			if !item.Selected {
				t.Fatalf("expected first-run default selection for %q", item.UID)
			}
		}
	}
	if groups[2].Items[0].UID != "b2" || groups[2].Items[1].UID != "b1" {
		t.Fatalf("expected fetch order inside group, got %+v", groups[2].Items)
	}
}

func TestReconcile_FetchWinsForNames(t *testing.T) {
	t.Parallel()

	fetched := []Descriptor{{Owner: "A", Name: "Renamed", UID: "1"}}
	persisted := []PersistedGroup{
		{Header: "A", Items: []Descriptor{{Owner: "A", Name: "Old", UID: "1", Selected: false}}},
	}

	groups := Reconcile(fetched, persisted)
	if got := groups[0].Items[0]; got.Name != "Renamed" || got.Selected {
		t.Fatalf("unexpected item: %+v", got)
	}
}

func TestReconcile_MatchRequiresSameHeader(t *testing.T) {
	t.Parallel()

	fetched := []Descriptor{{Owner: "new-owner", Name: "Moved", UID: "1"}}
	persisted := []PersistedGroup{
		{Header: "old-owner", Items: []Descriptor{{UID: "1", Selected: false}}},
	}

	groups := Reconcile(fetched, persisted)
	if !groups[0].Items[0].Selected {
		t.Fatalf("expected unmatched header to default to selected")
	}
}

func TestCollectSelectedIdentifiers_Idempotent(t *testing.T) {
	t.Parallel()

	fetched := []Descriptor{
		{Owner: "A", UID: "1"},
		{Owner: "A", UID: "3"},
		{Owner: "B", UID: "2"},
	}
	persisted := []PersistedGroup{
		{Header: "A", Items: []Descriptor{{UID: "3", Selected: false}}},
	}

	first := CollectSelectedIdentifiers(Reconcile(fetched, persisted))
	second := CollectSelectedIdentifiers(Reconcile(fetched, persisted))

	if !first.Equal(second) {
		t.Fatalf("expected identical sets, got %v and %v", first.Sorted(), second.Sorted())
	}
	if got := first.Sorted(); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("unexpected selected identifiers: %v", got)
	}
}

func TestToggle_ByIdentifier(t *testing.T) {
	t.Parallel()

	groups := Reconcile([]Descriptor{{Owner: "A", UID: "1"}, {Owner: "B", UID: "2"}}, nil)

	updated, ok := Toggle(groups, "2")
	if !ok {
		t.Fatalf("expected toggle to find calendar")
	}
	if item, _ := Find(updated, "2"); item.Selected {
		t.Fatalf("expected calendar 2 to be deselected")
	}
	if item, _ := Find(groups, "2"); !item.Selected {
		t.Fatalf("toggle must not mutate the input groups")
	}
	if ids := CollectSelectedIdentifiers(updated).Sorted(); len(ids) != 1 || ids[0] != "1" {
		t.Fatalf("unexpected selection after toggle: %v", ids)
	}
}

func TestToggle_UnknownIdentifierIsNoop(t *testing.T) {
	t.Parallel()

	groups := Reconcile([]Descriptor{{Owner: "A", UID: "1"}}, nil)
	updated, ok := Toggle(groups, "missing")
	if ok {
		t.Fatalf("expected unknown identifier to report false")
	}
	if len(updated) != 1 || !updated[0].Items[0].Selected {
		t.Fatalf("unexpected groups: %+v", updated)
	}
}

func TestSetSelected_IsIdempotent(t *testing.T) {
	t.Parallel()

	groups := Reconcile([]Descriptor{{Owner: "A", UID: "1"}, {Owner: "A", UID: "2"}}, nil)

	tests := []struct {
		name     string
		uid      string
		selected bool
		wantOK   bool
		wantIDs  []string
	}{
		{name: "deselect", uid: "2", selected: false, wantOK: true, wantIDs: []string{"1"}},
		{name: "select already selected", uid: "1", selected: true, wantOK: true, wantIDs: []string{"1", "2"}},
		{name: "unknown", uid: "missing", selected: false, wantOK: false, wantIDs: []string{"1", "2"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			once, ok := SetSelected(groups, tc.uid, tc.selected)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			twice, _ := SetSelected(once, tc.uid, tc.selected)
			got := CollectSelectedIdentifiers(twice).Sorted()
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("selection = %v, want %v", got, tc.wantIDs)
			}
			for i := range got {
				if got[i] != tc.wantIDs[i] {
					t.Fatalf("selection = %v, want %v", got, tc.wantIDs)
				}
			}
		})
	}

	if ids := CollectSelectedIdentifiers(groups); len(ids) != 2 {
		t.Fatalf("SetSelected must not mutate the input groups")
	}
}

func TestPersistedGroupEqual_IgnoresSelection(t *testing.T) {
	t.Parallel()

	a := PersistedGroup{Header: "A", Items: []Descriptor{{Owner: "A", Name: "Work", UID: "1", Selected: true}}}
	b := PersistedGroup{Header: "A", Items: []Descriptor{{Owner: "A", Name: "Work", UID: "1", Selected: false}}}
	c := PersistedGroup{Header: "A", Items: []Descriptor{{Owner: "A", Name: "Work", UID: "2"}}}

	if !a.Equal(b) {
		t.Fatalf("expected selection change to keep equality")
	}
	if a.Equal(c) {
		t.Fatalf("expected different identifiers to break equality")
	}
}
