// Package panchanga holds the precomputed Panchanga dataset: named bands of
// (start, end, value) rows keyed by Julian Day, band value labels and the
// weekday / nakshatra name lookups used by yoga rules.
package panchanga

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Row is a single raw band row. Value is only meaningful when HasValue is
// true; rows with a null value never match a query.
type Row struct {
	Start    float64
	End      float64
	Value    Code
	HasValue bool
}

// Valid reports whether the row has finite, positive-length bounds.
func (r Row) Valid() bool {
	return !math.IsNaN(r.Start) && !math.IsNaN(r.End) &&
		!math.IsInf(r.Start, 0) && !math.IsInf(r.End, 0) &&
		r.End > r.Start
}

// UnmarshalJSON decodes a [start, end, value] triple. Anything that does not
// look like one decodes into an invalid row instead of failing the dataset.
func (r *Row) UnmarshalJSON(data []byte) error {
	*r = Row{Start: math.NaN(), End: math.NaN()}

	var parts []jsoniter.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil || len(parts) < 2 {
		return nil
	}
	r.Start = parseBound(parts[0])
	r.End = parseBound(parts[1])
	if len(parts) > 2 {
		r.Value, r.HasValue = parseValue(parts[2])
	}
	return nil
}

// MarshalJSON writes the row back as a [start, end, value] triple.
func (r Row) MarshalJSON() ([]byte, error) {
	var value any
	if r.HasValue {
		if f, ok := r.Value.Number(); ok {
			value = f
		} else {
			value = string(r.Value)
		}
	}
	return json.Marshal([]any{r.Start, r.End, value})
}

func parseBound(raw jsoniter.RawMessage) float64 {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func parseValue(raw jsoniter.RawMessage) (Code, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return NormalizeCode(s)
	}
	return NormalizeCode(string(raw))
}

// Band is one attribute track.
type Band struct {
	Intervals []Row `json:"intervals"`
}

// Meta describes where and when the dataset was computed.
type Meta struct {
	TZHours  float64 `json:"tz_hours"`
	Year     int     `json:"year"`
	CityName string  `json:"city_name"`
	TZName   string  `json:"tz_name"`
}

// UnmarshalJSON accepts numeric fields encoded either as numbers or strings.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw struct {
		TZHours  jsoniter.RawMessage `json:"tz_hours"`
		Year     jsoniter.RawMessage `json:"year"`
		CityName string              `json:"city_name"`
		TZName   string              `json:"tz_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Meta{CityName: raw.CityName, TZName: raw.TZName}
	if tz := parseBound(raw.TZHours); !math.IsNaN(tz) {
		m.TZHours = tz
	}
	if y := parseBound(raw.Year); !math.IsNaN(y) {
		m.Year = int(y)
	}
	return nil
}

// Lookups are the ordered name tables rules refer to. Vara is 0-based,
// Nakshatra is addressed 1-based by band values.
type Lookups struct {
	Vara      []string `json:"vara"`
	Nakshatra []string `json:"nakshatra"`
}

// Dataset is the parsed Panchanga file for one city and year.
type Dataset struct {
	Meta      Meta                         `json:"meta"`
	Bands     map[string]Band              `json:"bands"`
	BandNames map[string]map[string]string `json:"band_names"`
	Lookups   Lookups                      `json:"lookups"`
}

// Decode parses a dataset and drops rows with unusable bounds.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("panchanga: decode dataset: %w", err)
	}
	ds.normalize()
	return &ds, nil
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(body []byte) (*Dataset, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("panchanga: empty dataset body")
	}
	return Decode(bytes.NewReader(body))
}

func (ds *Dataset) normalize() {
	if ds.Bands == nil {
		ds.Bands = map[string]Band{}
	}
	if ds.BandNames == nil {
		ds.BandNames = map[string]map[string]string{}
	}
	for name, band := range ds.Bands {
		kept := band.Intervals[:0]
		for _, row := range band.Intervals {
			if row.Valid() {
				kept = append(kept, row)
			}
		}
		ds.Bands[name] = Band{Intervals: kept}
	}
}

// Band returns the named band. Missing bands report false.
func (ds *Dataset) Band(name string) (Band, bool) {
	if ds == nil || ds.Bands == nil {
		return Band{}, false
	}
	b, ok := ds.Bands[name]
	return b, ok
}

// SetBand installs or replaces a band, typically a synthetic one built from
// a calendar feed. labels may be nil.
func (ds *Dataset) SetBand(name string, rows []Row, labels map[string]string) {
	if ds.Bands == nil {
		ds.Bands = map[string]Band{}
	}
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Valid() {
			kept = append(kept, row)
		}
	}
	ds.Bands[name] = Band{Intervals: kept}
	if labels != nil {
		if ds.BandNames == nil {
			ds.BandNames = map[string]map[string]string{}
		}
		ds.BandNames[name] = labels
	}
}

// BandKeys lists band keys present in the dataset, sorted.
func (ds *Dataset) BandKeys() []string {
	if ds == nil {
		return nil
	}
	keys := make([]string, 0, len(ds.Bands))
	for k := range ds.Bands {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
