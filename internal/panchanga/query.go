package panchanga

import (
	"math"
	"time"

	"muhurta/internal/interval"
)

// QueryBand returns the (start, end) of every row of band whose value is in
// allowed, unmerged and in row order.
//
// An empty allowed set returns an empty list: "nothing selected yet" is the
// caller's concern and must be decided before querying. Missing bands also
// return an empty list.
func (ds *Dataset) QueryBand(band string, allowed ValueSet) []interval.Interval {
	out := []interval.Interval{}
	if allowed.Len() == 0 {
		return out
	}
	b, ok := ds.Band(band)
	if !ok {
		return out
	}
	for _, row := range b.Intervals {
		if !row.HasValue || !allowed.Has(row.Value) {
			continue
		}
		out = append(out, interval.New(row.Start, row.End))
	}
	return out
}

// BandIntervals returns every row of band as an interval regardless of value.
func (ds *Dataset) BandIntervals(band string) []interval.Interval {
	out := []interval.Interval{}
	b, ok := ds.Band(band)
	if !ok {
		return out
	}
	for _, row := range b.Intervals {
		out = append(out, interval.New(row.Start, row.End))
	}
	return out
}

// DefaultBounds is used when a dataset has no usable rows.
var DefaultBounds = interval.New(0, 365)

// Bounds is the earliest start and latest end across all bands.
func (ds *Dataset) Bounds() interval.Interval {
	if ds == nil {
		return DefaultBounds
	}
	minStart := math.Inf(1)
	maxEnd := math.Inf(-1)
	for _, band := range ds.Bands {
		for _, row := range band.Intervals {
			minStart = math.Min(minStart, row.Start)
			maxEnd = math.Max(maxEnd, row.End)
		}
	}
	b := interval.New(minStart, maxEnd)
	if !b.Valid() {
		return DefaultBounds
	}
	return b
}

// unixEpochJD is the Julian Day of 1970-01-01T00:00:00Z.
const unixEpochJD = 2440587.5

const secondsPerDay = 86400

// JDToTime converts a Julian Day to a UTC time, rounded to the millisecond.
func JDToTime(jd float64) time.Time {
	ms := math.Round((jd - unixEpochJD) * secondsPerDay * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// TimeToJD converts t to a Julian Day.
func TimeToJD(t time.Time) float64 {
	return float64(t.UnixMilli())/(secondsPerDay*1000) + unixEpochJD
}

// Location is the dataset's display zone: tz_name when it loads, otherwise
// a fixed offset of tz_hours.
func (m Meta) Location() *time.Location {
	if m.TZName != "" {
		if loc, err := time.LoadLocation(m.TZName); err == nil {
			return loc
		}
	}
	name := m.TZName
	if name == "" {
		name = "dataset"
	}
	return time.FixedZone(name, int(math.Round(m.TZHours*3600)))
}
