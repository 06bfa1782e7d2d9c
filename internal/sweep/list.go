package sweep

import (
	"cmp"
	"slices"

	"muhurta/internal/yoga"
)

// Entry is one yoga window in the plain slot list.
type Entry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Name  string  `json:"name"`
	Good  bool    `json:"good"`
	Badge string  `json:"badge"`
}

// AllSlots lists every window ending after base, good and bad alike,
// ordered by start.
func AllSlots(resolved []yoga.Resolved, base float64) []Entry {
	out := []Entry{}
	for _, res := range resolved {
		badge := "Bad"
		if res.Good {
			badge = "Good"
		}
		for _, w := range res.Windows {
			if w.End <= base {
				continue
			}
			out = append(out, Entry{Start: w.Start, End: w.End, Name: res.Rule.Name, Good: res.Good, Badge: badge})
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

// FilterSlots keeps slots with at least one of names among their yogas.
// No names keeps everything.
func FilterSlots(slots []Slot, names []string) []Slot {
	if len(names) == 0 {
		return slots
	}
	out := []Slot{}
	for _, s := range slots {
		if containsAny(s.Names, names) {
			out = append(out, s)
		}
	}
	return out
}

// FilterEntries is FilterSlots for the plain list.
func FilterEntries(entries []Entry, names []string) []Entry {
	if len(names) == 0 {
		return entries
	}
	out := []Entry{}
	for _, e := range entries {
		if slices.Contains(names, e.Name) {
			out = append(out, e)
		}
	}
	return out
}

func containsAny(have, want []string) bool {
	for _, h := range have {
		if slices.Contains(want, h) {
			return true
		}
	}
	return false
}
