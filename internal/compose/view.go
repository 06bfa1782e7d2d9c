package compose

import (
	"math"

	"muhurta/internal/interval"
)

// DefaultWindowDays is the initial zoom span.
const DefaultWindowDays = 30

// View is the visible slice of the dataset timeline.
type View struct {
	DatasetStart float64 `json:"datasetStart"`
	DatasetEnd   float64 `json:"datasetEnd"`
	WindowDays   float64 `json:"windowDays"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	// PanRatio is the view start's position in the pannable range, 0..1.
	PanRatio float64 `json:"panRatio"`
}

// NewView positions a window of windowDays at the start of bounds.
func NewView(bounds interval.Interval, windowDays float64) View {
	v := View{DatasetStart: bounds.Start, DatasetEnd: bounds.End}
	span := math.Max(bounds.End-bounds.Start, 1)
	if !(windowDays > 0) {
		windowDays = DefaultWindowDays
	}
	v.WindowDays = math.Min(windowDays, span)
	v.Apply(bounds.Start)
	return v
}

// Range is the view as an interval.
func (v View) Range() interval.Interval {
	return interval.New(v.Start, v.End)
}

func (v View) available() float64 {
	return math.Max(v.DatasetEnd-v.DatasetStart-v.WindowDays, 0)
}

// Apply moves the view to start, clamped so it stays inside the dataset.
func (v *View) Apply(start float64) {
	if math.IsNaN(v.DatasetStart) || math.IsInf(v.DatasetStart, 0) ||
		math.IsNaN(v.DatasetEnd) || math.IsInf(v.DatasetEnd, 0) || math.IsNaN(start) {
		return
	}
	maxStart := math.Max(v.DatasetStart, v.DatasetEnd-v.WindowDays)
	clamped := math.Min(math.Max(start, v.DatasetStart), maxStart)
	v.Start = clamped
	v.End = math.Min(clamped+v.WindowDays, v.DatasetEnd)
	if avail := v.available(); avail > 0 {
		v.PanRatio = (v.Start - v.DatasetStart) / avail
	} else {
		v.PanRatio = 0
	}
}

// SetWindowDays zooms to days, capped at the dataset span. Non-positive
// values are ignored.
func (v *View) SetWindowDays(days float64) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return
	}
	v.WindowDays = math.Min(days, math.Max(v.DatasetEnd-v.DatasetStart, 1))
	v.Apply(v.Start)
}

// SetPanRatio pans to ratio (clamped to 0..1) of the pannable range.
func (v *View) SetPanRatio(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	ratio = math.Min(math.Max(ratio, 0), 1)
	v.Apply(v.DatasetStart + ratio*v.available())
}
