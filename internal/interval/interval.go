// Package interval implements set operations over lists of half-open
// [Start, End) spans measured in fractional days (Julian Day numbers).
//
// Every operation is pure and total: inputs need not be sorted, and
// degenerate, inverted or non-finite spans contribute nothing.
package interval

import (
	"math"
	"slices"
)

// Interval is a half-open span [Start, End).
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// New is shorthand for Interval{Start: start, End: end}.
func New(start, end float64) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether iv has finite bounds and positive length.
func (iv Interval) Valid() bool {
	return !math.IsNaN(iv.Start) && !math.IsNaN(iv.End) &&
		!math.IsInf(iv.Start, 0) && !math.IsInf(iv.End, 0) &&
		iv.End > iv.Start
}

func (iv Interval) Duration() float64 {
	if !iv.Valid() {
		return 0
	}
	return iv.End - iv.Start
}

// Overlaps reports whether iv and other share a positive-length span.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Merge sorts by start and coalesces overlapping or abutting spans into a
// minimal disjoint ascending list. The input is not modified.
func Merge(list []Interval) []Interval {
	valid := make([]Interval, 0, len(list))
	for _, iv := range list {
		if iv.Valid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return []Interval{}
	}
	slices.SortStableFunc(valid, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	merged := []Interval{valid[0]}
	for _, cur := range valid[1:] {
		last := &merged[len(merged)-1]
		if cur.Start <= last.End {
			last.End = math.Max(last.End, cur.End)
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// Intersect returns the spans covered by both a and b, as a merged list.
// Runs in O(|a|+|b|) after merging.
func Intersect(a, b []Interval) []Interval {
	ma := Merge(a)
	mb := Merge(b)
	out := []Interval{}
	i, j := 0, 0
	for i < len(ma) && j < len(mb) {
		start := math.Max(ma[i].Start, mb[j].Start)
		end := math.Min(ma[i].End, mb[j].End)
		if end > start {
			out = append(out, Interval{Start: start, End: end})
		}
		// advance whichever ends first
		if ma[i].End < mb[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// IntersectAll folds Intersect across lists. An empty argument list yields
// an empty result.
func IntersectAll(lists ...[]Interval) []Interval {
	if len(lists) == 0 {
		return []Interval{}
	}
	acc := Merge(lists[0])
	for _, l := range lists[1:] {
		if len(acc) == 0 {
			break
		}
		acc = Intersect(acc, l)
	}
	return acc
}

func Union(a, b []Interval) []Interval {
	all := make([]Interval, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return Merge(all)
}

// Subtract removes every span in removal from base.
func Subtract(base, removal []Interval) []Interval {
	cuts := Merge(removal)
	out := []Interval{}
	for _, iv := range Merge(base) {
		current := iv.Start
		for _, cut := range cuts {
			if current >= iv.End {
				break
			}
			if cut.End <= current {
				continue
			}
			if cut.Start >= iv.End {
				break
			}
			if cut.Start > current {
				out = append(out, Interval{Start: current, End: math.Min(cut.Start, iv.End)})
			}
			current = math.Max(current, cut.End)
		}
		if current < iv.End {
			out = append(out, Interval{Start: current, End: iv.End})
		}
	}
	return out
}

// Clip restricts every span to [start, end) and drops what falls outside.
// The result keeps the input order and is not merged.
func Clip(list []Interval, start, end float64) []Interval {
	out := make([]Interval, 0, len(list))
	for _, iv := range list {
		c := Interval{Start: math.Max(iv.Start, start), End: math.Min(iv.End, end)}
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// Total is the summed duration of the merged list.
func Total(list []Interval) float64 {
	var sum float64
	for _, iv := range Merge(list) {
		sum += iv.End - iv.Start
	}
	return sum
}

// Contains reports whether t falls inside any span of list.
func Contains(list []Interval, t float64) bool {
	for _, iv := range list {
		if iv.Valid() && t >= iv.Start && t < iv.End {
			return true
		}
	}
	return false
}
