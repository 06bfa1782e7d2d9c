package yoga

import (
	"math"

	"muhurta/internal/interval"
)

// Summary counts good and bad windows overlapping a view, with the hours
// they cover inside it.
type Summary struct {
	GoodWindows int     `json:"goodWindows"`
	BadWindows  int     `json:"badWindows"`
	GoodHours   float64 `json:"goodHours"`
	BadHours    float64 `json:"badHours"`
	Yogas       int     `json:"yogas"`
}

// Summarize tallies resolved windows against view.
func Summarize(resolved []Resolved, view interval.Interval) Summary {
	s := Summary{
		Yogas:     len(resolved),
		GoodHours: CategoryHours(resolved, view, true),
		BadHours:  CategoryHours(resolved, view, false),
	}
	for _, res := range resolved {
		n := len(interval.Clip(res.Windows, view.Start, view.End))
		if res.Good {
			s.GoodWindows += n
		} else {
			s.BadWindows += n
		}
	}
	return s
}

// CategoryHours sums the hours of good (or bad) windows inside view.
// Overlapping windows count once per window.
func CategoryHours(resolved []Resolved, view interval.Interval, good bool) float64 {
	if !view.Valid() {
		return 0
	}
	var days float64
	for _, res := range resolved {
		if res.Good != good {
			continue
		}
		for _, w := range res.Windows {
			s := math.Max(w.Start, view.Start)
			e := math.Min(w.End, view.End)
			if e > s {
				days += e - s
			}
		}
	}
	return days * 24
}

// cursorSlack lets an instant on a window's end still count as inside it.
const cursorSlack = 1e-9

// ActiveAt lists the names of good and bad yogas with a window covering t
// within view.
func ActiveAt(resolved []Resolved, view interval.Interval, t float64) (good, bad []string) {
	good, bad = []string{}, []string{}
	for _, res := range resolved {
		found := false
		for _, w := range res.Windows {
			s := math.Max(w.Start, view.Start)
			e := math.Min(w.End, view.End)
			if e > s && t >= s && t <= e+cursorSlack {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if res.Good {
			good = append(good, res.Rule.Name)
		} else {
			bad = append(bad, res.Rule.Name)
		}
	}
	return good, bad
}
