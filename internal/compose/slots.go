package compose

import (
	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

// SlotLabel names a condition contributing to a slot.
type SlotLabel struct {
	ConditionID string   `json:"conditionId"`
	FilterKey   string   `json:"filterKey"`
	Text        string   `json:"text"`
	Selections  []string `json:"selections,omitempty"`
}

// Slot is one final match window annotated with its contributors.
type Slot struct {
	Start  float64     `json:"start"`
	End    float64     `json:"end"`
	Labels []SlotLabel `json:"labels"`
}

// BuildSlots annotates every window in final with the conditions whose own
// windows overlap it, in condition order. labels may be nil.
func BuildSlots(ds *panchanga.Dataset, conds []Condition, final []interval.Interval, labels *panchanga.OptionIndex) []Slot {
	slots := make([]Slot, 0, len(final))
	if len(final) == 0 {
		return slots
	}

	contributions := make([][]interval.Interval, len(conds))
	for i, c := range conds {
		contributions[i] = Evaluate(ds, c).Windows
	}

	for _, w := range final {
		slot := Slot{Start: w.Start, End: w.End, Labels: []SlotLabel{}}
		for i, c := range conds {
			if !overlapsAny(contributions[i], w) {
				continue
			}
			l := SlotLabel{ConditionID: c.ID, FilterKey: c.FilterKey, Text: c.Label}
			if labels != nil {
				l.Selections = labels.SelectionLabels(c.FilterKey, c.Selections)
			}
			slot.Labels = append(slot.Labels, l)
		}
		slots = append(slots, slot)
	}
	return slots
}

func overlapsAny(list []interval.Interval, w interval.Interval) bool {
	for _, iv := range list {
		if iv.Overlaps(w) {
			return true
		}
	}
	return false
}
