package archive

import (
	"sort"
	"strings"
)

// DateGroup is one calendar day of entries, newest entries first inside the
// group.
type DateGroup struct {
	Date    string   `json:"date"`
	Entries []*Entry `json:"entries"`
}

// The view functions below are pure projections over an entry snapshot.
// They never mutate their input; callers get fresh slices.

// filterSearch keeps entries whose name contains the query,
// case-insensitively. An empty query keeps everything.
func filterSearch(entries []*Entry, query string) []*Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

// filterArchived partitions by the archived flag.
func filterArchived(entries []*Entry, archived bool) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Archived == archived {
			out = append(out, e)
		}
	}
	return out
}

// groupByDate buckets entries per calendar day, groups ordered newest day
// first.
func groupByDate(entries []*Entry) []DateGroup {
	byDate := make(map[string][]*Entry)
	var keys []string
	for _, e := range entries {
		key := e.DateKey()
		if _, seen := byDate[key]; !seen {
			keys = append(keys, key)
		}
		byDate[key] = append(byDate[key], e)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	groups := make([]DateGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, DateGroup{Date: key, Entries: byDate[key]})
	}
	return groups
}

// starredFirst orders starred entries ahead of the rest, keeping the
// relative order within each partition.
func starredFirst(entries []*Entry) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Starred {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if !e.Starred {
			out = append(out, e)
		}
	}
	return out
}
