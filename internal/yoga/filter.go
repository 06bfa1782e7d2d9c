package yoga

import (
	"slices"

	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

// BandFilter narrows yoga windows by one band: Require keeps only time
// where the band has one of its values, Block removes such time.
type BandFilter struct {
	Require []panchanga.Code `json:"require"`
	Block   []panchanga.Code `json:"block"`
}

// Filter selects yogas and narrows their windows. A nil Selected keeps every
// rule; a non-nil empty one keeps none.
type Filter struct {
	Selected []string              `json:"selected"`
	Bands    map[string]BandFilter `json:"bands"`
}

// Apply returns the selected yogas with band filters applied. Yogas left
// without windows are dropped. Filtered windows come back merged.
func (f Filter) Apply(ds *panchanga.Dataset, resolved []Resolved) []Resolved {
	out := []Resolved{}
	if f.Selected != nil && len(f.Selected) == 0 {
		return out
	}
	var allowed map[string]bool
	if f.Selected != nil {
		allowed = make(map[string]bool, len(f.Selected))
		for _, id := range f.Selected {
			allowed[id] = true
		}
	}

	bands := make([]string, 0, len(f.Bands))
	for b := range f.Bands {
		bands = append(bands, b)
	}
	slices.Sort(bands)

	for _, res := range resolved {
		if allowed != nil && !allowed[res.Rule.ID] {
			continue
		}
		windows := res.Windows
		for _, band := range bands {
			windows = f.Bands[band].apply(ds, band, windows)
		}
		if len(windows) == 0 {
			continue
		}
		res.Windows = windows
		out = append(out, res)
	}
	return out
}

func (bf BandFilter) apply(ds *panchanga.Dataset, band string, windows []interval.Interval) []interval.Interval {
	if len(windows) == 0 {
		return windows
	}
	if len(bf.Require) > 0 {
		windows = interval.Intersect(windows, ds.QueryBand(band, panchanga.CodeSet(bf.Require)))
	}
	if len(bf.Block) > 0 {
		windows = interval.Subtract(windows, ds.QueryBand(band, panchanga.CodeSet(bf.Block)))
	}
	return windows
}
