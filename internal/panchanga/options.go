package panchanga

import (
	"slices"
	"sync"
)

// OptionIndex resolves selectable options and value labels per filter key.
// Results are cached for the lifetime of the index, which callers scope to
// one loaded dataset. It is safe for concurrent use.
type OptionIndex struct {
	mu      sync.Mutex
	ds      *Dataset
	options map[string][]Option
	labels  map[string]map[Code]string
}

func NewOptionIndex(ds *Dataset) *OptionIndex {
	return &OptionIndex{
		ds:      ds,
		options: map[string][]Option{},
		labels:  map[string]map[Code]string{},
	}
}

// BandKeyFor maps a filter key to its band. Keys without a built-in
// definition (synthetic feed bands) are their own band key.
func BandKeyFor(filterKey string) string {
	if d, ok := LookupFilter(filterKey); ok && d.BandKey != "" {
		return d.BandKey
	}
	return filterKey
}

// Options lists the selectable values for filterKey, ordered by code.
func (x *OptionIndex) Options(filterKey string) []Option {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.optionsLocked(filterKey)
}

func (x *OptionIndex) optionsLocked(filterKey string) []Option {
	if filterKey == "" {
		return []Option{}
	}
	if cached, ok := x.options[filterKey]; ok {
		return cached
	}

	var opts []Option
	if d, ok := LookupFilter(filterKey); ok && len(d.CustomOptions) > 0 {
		opts = slices.Clone(d.CustomOptions)
	} else {
		names, ok := x.ds.bandNames(BandKeyFor(filterKey))
		if !ok {
			// Not cached: the band may appear after a feed refresh.
			return []Option{}
		}
		opts = optionsFromBandNames(names)
	}

	labels := make(map[Code]string, len(opts))
	for _, o := range opts {
		labels[o.Value] = o.Label
	}
	x.options[filterKey] = opts
	x.labels[filterKey] = labels
	return opts
}

// Label returns the display label for value, or the raw value.
func (x *OptionIndex) Label(filterKey string, value Code) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.labelLocked(filterKey, value)
}

func (x *OptionIndex) labelLocked(filterKey string, value Code) string {
	if _, ok := x.labels[filterKey]; !ok {
		x.optionsLocked(filterKey)
	}
	if l, ok := x.labels[filterKey][value]; ok {
		return l
	}
	// values may arrive un-normalized from persisted state
	if c, ok := NormalizeCode(string(value)); ok {
		if l, ok := x.labels[filterKey][c]; ok {
			return l
		}
	}
	return string(value)
}

// SelectionLabels maps every selected value to its label.
func (x *OptionIndex) SelectionLabels(filterKey string, values []Code) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, x.labelLocked(filterKey, v))
	}
	return out
}

func (ds *Dataset) bandNames(band string) (map[string]string, bool) {
	if ds == nil || ds.BandNames == nil {
		return nil, false
	}
	names, ok := ds.BandNames[band]
	return names, ok
}

func optionsFromBandNames(names map[string]string) []Option {
	opts := make([]Option, 0, len(names))
	for k, label := range names {
		c, ok := NormalizeCode(k)
		if !ok {
			continue
		}
		opts = append(opts, Option{Value: c, Label: label})
	}
	slices.SortFunc(opts, func(a, b Option) int {
		return compareCodes(a.Value, b.Value)
	})
	return opts
}
