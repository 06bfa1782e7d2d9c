package yoga

import (
	"cmp"
	"slices"

	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

// Band keys the resolver queries.
const (
	BandVara      = "vara"
	BandTithi     = "tithi"
	BandNakshatra = "nakshatra"
)

// Resolved is one rule with the windows it produced. Windows are sorted by
// start but not merged.
type Resolved struct {
	Rule    Rule                `json:"rule"`
	Good    bool                `json:"good"`
	Windows []interval.Interval `json:"windows"`
}

// Resolver evaluates rule definitions against one dataset.
type Resolver struct {
	ds        *panchanga.Dataset
	families  map[string][]panchanga.Code
	vara      *NameIndex
	nakshatra *NameIndex
}

// NewResolver prepares name lookups from the dataset. norm may be nil.
func NewResolver(ds *panchanga.Dataset, rules *Rules, norm Normalizer) *Resolver {
	r := &Resolver{ds: ds, families: map[string][]panchanga.Code{}}
	if rules != nil && rules.TithiFamilies != nil {
		r.families = rules.TithiFamilies
	}
	var lookups panchanga.Lookups
	if ds != nil {
		lookups = ds.Lookups
	}
	r.vara = NewNameIndex(lookups.Vara, norm)
	r.nakshatra = NewNameIndex(lookups.Nakshatra, norm)
	return r
}

// ResolveAll resolves every rule, strongest first. Rules of equal strength
// keep file order.
func (r *Resolver) ResolveAll(rules *Rules) []Resolved {
	if rules == nil {
		return []Resolved{}
	}
	sorted := slices.Clone(rules.Yogas)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return cmp.Compare(b.Strength, a.Strength)
	})
	out := make([]Resolved, 0, len(sorted))
	for _, rule := range sorted {
		out = append(out, Resolved{
			Rule:    rule,
			Good:    rule.IsGood(),
			Windows: r.Resolve(rule),
		})
	}
	return out
}

// Resolve returns the rule's windows sorted by start. Windows from
// different combos are concatenated, not merged.
func (r *Resolver) Resolve(rule Rule) []interval.Interval {
	var windows []interval.Interval

	switch d := rule.Definition.(type) {
	case VaraTithiFamilies:
		for _, c := range d.Combos {
			windows = append(windows, r.match(
				r.vara.Codes(c.Vara, false),
				r.familyCodes(c.TithiFamilies),
			)...)
		}
	case VaraTithi:
		for _, c := range d.Combos {
			windows = append(windows, r.match(
				r.vara.Codes(c.Vara, false),
				r.tithiCodes(c),
			)...)
		}
	case VaraNakshatra:
		for _, c := range d.Combos {
			windows = append(windows, r.match(
				r.vara.Codes(c.Vara, false),
				nil,
				r.nakshatra.Codes(c.Nakshatras, true),
			)...)
		}
	case TithiNakshatra:
		for _, c := range d.Combos {
			windows = append(windows, interval.IntersectAll(
				r.ds.QueryBand(BandTithi, r.tithiCodes(c)),
				r.ds.QueryBand(BandNakshatra, r.nakshatra.Codes(c.Nakshatras, true)),
			)...)
		}
	case TripleList:
		for _, c := range d.Triples {
			windows = append(windows, r.match(
				r.vara.Codes(c.Vara, false),
				r.tithiCodes(c),
				r.nakshatra.Codes(c.Nakshatras, true),
			)...)
		}
	case TripleCombined:
		windows = r.match(
			r.vara.Codes(d.MaleficVaras, false),
			r.familyCodes(d.TithiFamilies),
			r.nakshatra.Codes(d.Nakshatras, true),
		)
	case BandRef:
		if d.Band != "" {
			windows = r.ds.BandIntervals(d.Band)
		}
	case Unknown, nil:
	}

	out := make([]interval.Interval, 0, len(windows))
	for _, w := range windows {
		if w.Valid() {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b interval.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

// match intersects the vara query with a tithi query and, when given, a
// nakshatra query. A nil tithi set skips the tithi band.
func (r *Resolver) match(vara, tithi panchanga.ValueSet, nakshatra ...panchanga.ValueSet) []interval.Interval {
	lists := [][]interval.Interval{r.ds.QueryBand(BandVara, vara)}
	if tithi != nil {
		lists = append(lists, r.ds.QueryBand(BandTithi, tithi))
	}
	for _, n := range nakshatra {
		lists = append(lists, r.ds.QueryBand(BandNakshatra, n))
	}
	return interval.IntersectAll(lists...)
}

func (r *Resolver) familyCodes(families []string) panchanga.ValueSet {
	set := panchanga.NewValueSet()
	for _, fam := range families {
		for _, t := range r.families[fam] {
			set.Add(t)
		}
	}
	return set
}

// tithiCodes unions explicit tithis, the single tithi and family members.
func (r *Resolver) tithiCodes(c Combo) panchanga.ValueSet {
	set := r.familyCodes(c.TithiFamilies)
	for _, t := range c.Tithis {
		set.Add(t)
	}
	if c.Tithi != nil {
		set.Add(*c.Tithi)
	}
	return set
}
