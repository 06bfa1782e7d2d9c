package compose

import (
	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

// Compose folds conds over the dataset and returns the merged match
// windows inside view.
//
// ALL starts from the whole view and narrows; ANY starts from nothing and
// widens; SEQUENCE starts from nothing and applies each condition's Op.
// EXCLUDE conditions always subtract. Inactive INCLUDE conditions are
// skipped, while an active one matching nothing still narrows.
//
// Whenever the running result is empty, the next active INCLUDE condition
// replaces it, whatever the fold mode. In ALL mode the view is the
// initial result.
func Compose(ds *panchanga.Dataset, conds []Condition, mode FoldMode, view interval.Interval) []interval.Interval {
	if len(conds) == 0 {
		return []interval.Interval{}
	}

	var result []interval.Interval
	if mode == FoldAll && view.Valid() {
		result = []interval.Interval{view}
	}

	for _, c := range conds {
		ev := Evaluate(ds, c)
		if c.Polarity == Exclude {
			result = interval.Subtract(result, ev.Windows)
			continue
		}
		if !ev.Active {
			continue
		}
		if len(result) == 0 {
			result = interval.Merge(ev.Windows)
			continue
		}
		result = fold(result, ev.Windows, mode, c.Op)
	}

	final := interval.Merge(result)
	if view.Valid() {
		final = interval.Clip(final, view.Start, view.End)
	}
	return final
}

func fold(acc, windows []interval.Interval, mode FoldMode, op Op) []interval.Interval {
	switch mode {
	case FoldAny:
		return interval.Union(acc, windows)
	case FoldSequence:
		if op == OpOr {
			return interval.Union(acc, windows)
		}
		return interval.Intersect(acc, windows)
	default:
		return interval.Intersect(acc, windows)
	}
}
