package web

import (
	"fmt"
)

// Tab is one labeled tab identifier.
type Tab struct {
	ID    string
	Label string
}

// TabItem is a rendered tab entry.
type TabItem struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

// TabSet is a controlled tab group: it holds the tab definitions but no
// selection state. The active identifier is owned by the caller and passed
// in per render; selection changes go through the caller's callback.
type TabSet struct {
	tabs     []Tab
	hrefFunc func(id string) string
}

// NewTabSet creates a tab set. IDs must be unique within the set.
func NewTabSet(tabs []Tab, hrefFunc func(id string) string) (*TabSet, error) {
	if len(tabs) == 0 {
		return nil, fmt.Errorf("tabs: empty set")
	}
	seen := make(map[string]bool, len(tabs))
	for _, t := range tabs {
		if t.ID == "" {
			return nil, fmt.Errorf("tabs: empty id")
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("tabs: duplicate id %q", t.ID)
		}
		seen[t.ID] = true
	}
	if hrefFunc == nil {
		hrefFunc = func(id string) string { return "?tab=" + id }
	}
	return &TabSet{tabs: tabs, hrefFunc: hrefFunc}, nil
}

// Contains reports whether id names a tab in the set.
func (ts *TabSet) Contains(id string) bool {
	for _, t := range ts.tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Items renders the set with the given active identifier. An active
// identifier matching no tab marks nothing active; that is accepted caller
// error, not signaled.
func (ts *TabSet) Items(active string) []TabItem {
	items := make([]TabItem, len(ts.tabs))
	for i, t := range ts.tabs {
		items[i] = TabItem{
			ID:     t.ID,
			Label:  t.Label,
			Href:   ts.hrefFunc(t.ID),
			Active: t.ID == active,
		}
	}
	return items
}

// Select reports a selection change to onSelect. The callback fires exactly
// once, synchronously, and only when id names a tab and differs from the
// current active identifier. The returned value is the identifier the
// caller should adopt as active.
func (ts *TabSet) Select(active, id string, onSelect func(id string)) string {
	if id == active || !ts.Contains(id) {
		return active
	}
	if onSelect != nil {
		onSelect(id)
	}
	return id
}
