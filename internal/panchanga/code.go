package panchanga

import (
	stdjson "encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Code is a discrete band value (weekday index, tithi number, nakshatra
// index, ...) normalized so that 3, 3.0 and "3" compare equal.
type Code string

// NormalizeCode converts a raw dataset or user value into a Code. It
// returns false for nil, empty strings and non-finite numbers.
func NormalizeCode(v any) (Code, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case Code:
		return normalizeString(string(x))
	case string:
		return normalizeString(x)
	case stdjson.Number:
		return normalizeString(x.String())
	case float64:
		return normalizeFloat(x)
	case float32:
		return normalizeFloat(float64(x))
	case int:
		return Code(strconv.Itoa(x)), true
	case int64:
		return Code(strconv.FormatInt(x, 10)), true
	case int32:
		return Code(strconv.FormatInt(int64(x), 10)), true
	case uint8:
		return Code(strconv.FormatUint(uint64(x), 10)), true
	case bool:
		return "", false
	case fmt.Stringer:
		return normalizeString(x.String())
	default:
		return normalizeString(fmt.Sprint(x))
	}
}

func normalizeString(s string) (Code, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return normalizeFloat(f)
	}
	return Code(s), true
}

func normalizeFloat(f float64) (Code, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return Code(strconv.FormatInt(int64(f), 10)), true
	}
	return Code(strconv.FormatFloat(f, 'g', -1, 64)), true
}

// UnmarshalJSON accepts a code written as a JSON number or string, so
// persisted selections decode whichever way a client wrote them.
func (c *Code) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = ""
		return nil
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	*c, _ = normalizeString(raw)
	return nil
}

// Number returns the numeric value of c when it is numeric.
func (c Code) Number() (float64, bool) {
	f, err := strconv.ParseFloat(string(c), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// compareCodes orders numeric codes numerically ahead of textual ones.
func compareCodes(a, b Code) int {
	fa, okA := a.Number()
	fb, okB := b.Number()
	switch {
	case okA && okB:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

// ValueSet is a set of allowed codes.
type ValueSet map[Code]struct{}

// NewValueSet normalizes every value; unusable values are skipped.
func NewValueSet(values ...any) ValueSet {
	set := make(ValueSet, len(values))
	for _, v := range values {
		set.Add(v)
	}
	return set
}

// CodeSet builds a ValueSet from already-typed codes.
func CodeSet(codes []Code) ValueSet {
	set := make(ValueSet, len(codes))
	for _, c := range codes {
		set.Add(c)
	}
	return set
}

func (s ValueSet) Add(v any) {
	if c, ok := NormalizeCode(v); ok {
		s[c] = struct{}{}
	}
}

func (s ValueSet) Has(c Code) bool {
	_, ok := s[c]
	return ok
}

func (s ValueSet) Len() int {
	return len(s)
}

// Sorted returns the members in code order.
func (s ValueSet) Sorted() []Code {
	out := make([]Code, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCodes)
	return out
}
