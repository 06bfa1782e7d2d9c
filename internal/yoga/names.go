package yoga

import (
	"strings"

	"muhurta/internal/panchanga"
)

// Normalizer folds a weekday or nakshatra name into a comparison key.
type Normalizer func(string) string

// NormalizeName lowercases s, drops everything but ASCII letters and folds
// the common doubled-vowel spellings ("oo" to "u", "aa" to "a").
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "oo", "u")
	return strings.ReplaceAll(out, "aa", "a")
}

// NameIndex maps normalized names to their position in a lookup table.
type NameIndex struct {
	norm  Normalizer
	index map[string]int
}

// NewNameIndex indexes names with norm, or NormalizeName when norm is nil.
// The first occurrence of a key wins.
func NewNameIndex(names []string, norm Normalizer) *NameIndex {
	if norm == nil {
		norm = NormalizeName
	}
	x := &NameIndex{norm: norm, index: make(map[string]int, len(names))}
	for i, n := range names {
		k := norm(n)
		if k == "" {
			continue
		}
		if _, ok := x.index[k]; !ok {
			x.index[k] = i
		}
	}
	return x
}

// Codes resolves names to band codes. Vara bands use the 0-based position,
// nakshatra bands the 1-based one. Unknown names are skipped.
func (x *NameIndex) Codes(names []string, oneBased bool) panchanga.ValueSet {
	set := panchanga.NewValueSet()
	offset := 0
	if oneBased {
		offset = 1
	}
	for _, n := range names {
		if i, ok := x.index[x.norm(n)]; ok {
			set.Add(i + offset)
		}
	}
	return set
}
