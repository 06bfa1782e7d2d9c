// Package sweep finds good-only windows: spans where at least one good
// yoga is active and no bad yoga is.
package sweep

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"muhurta/internal/interval"
	"muhurta/internal/yoga"
)

// SnapPerDay is the boundary resolution: one second in Julian days.
const SnapPerDay = 86400

// eps is half a snapped unit.
const eps = 0.5 / SnapPerDay

// Snap rounds jd to the nearest second.
func Snap(jd float64) float64 {
	if math.IsNaN(jd) || math.IsInf(jd, 0) {
		return jd
	}
	return math.Round(jd*SnapPerDay) / SnapPerDay
}

// YogaStrength is one good yoga active during a segment.
type YogaStrength struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// Segment is a stretch of a slot with a constant set of active good yogas.
type Segment struct {
	Start     float64        `json:"start"`
	End       float64        `json:"end"`
	Intensity float64        `json:"intensity"`
	Yogas     []YogaStrength `json:"yogas"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Detail is one good yoga's coverage inside a slot.
type Detail struct {
	Name     string              `json:"name"`
	Duration float64             `json:"duration"`
	Ranges   []interval.Interval `json:"ranges"`
}

// Slot is a maximal good-only span.
type Slot struct {
	Start             float64   `json:"start"`
	End               float64   `json:"end"`
	Names             []string  `json:"names"`
	Details           []Detail  `json:"details"`
	IntensitySegments []Segment `json:"intensitySegments"`
	Peak              *Segment  `json:"peak"`
	AvgIntensity      float64   `json:"avgIntensity"`
}

type eventKind int

// Order at equal times: endings before beginnings, good ends first and
// good starts last.
const (
	goodEnd eventKind = iota
	badEnd
	badStart
	goodStart
)

type event struct {
	time float64
	kind eventKind
	name string
	span interval.Interval
}

// GoodOnly sweeps resolved yoga windows over [max(base, view.Start),
// view.End) and returns the good-only slots in time order.
//
// Boundaries snap to whole seconds and spans shorter than half a second are
// dropped. Windows of the same yoga are merged first, so a yoga is never
// active twice at once. Events sharing an instant are applied together
// before the slot state is re-evaluated.
func GoodOnly(resolved []yoga.Resolved, base float64, view interval.Interval) []Slot {
	if !view.Valid() {
		return []Slot{}
	}
	start := view.Start
	if !math.IsNaN(base) && base > start {
		start = base
	}
	end := view.End

	events, strengths := buildEvents(resolved, start, end)
	if len(events) == 0 {
		return []Slot{}
	}
	slices.SortStableFunc(events, func(a, b event) int {
		if c := cmp.Compare(a.time, b.time); c != 0 {
			return c
		}
		return cmp.Compare(a.kind, b.kind)
	})

	sw := &sweeper{strengths: strengths}
	for i := 0; i < len(events); {
		j := i
		for j < len(events) && events[j].time == events[i].time {
			j++
		}
		sw.step(events[i:j])
		i = j
	}
	sw.finish(Snap(end))

	out := make([]Slot, 0, len(sw.slots))
	for _, s := range sw.slots {
		if s.End > s.Start+eps {
			out = append(out, s)
		}
	}
	return out
}

func buildEvents(resolved []yoga.Resolved, start, end float64) ([]event, map[string]float64) {
	strengths := map[string]float64{}
	goodSpans := map[string][]interval.Interval{}
	var goodOrder []string
	var events []event

	for _, res := range resolved {
		name := res.Rule.Name
		if res.Good {
			strengths[name] = res.Rule.Strength
		}
		for _, w := range res.Windows {
			s := Snap(math.Max(w.Start, start))
			e := Snap(math.Min(w.End, end))
			if math.IsNaN(s) || math.IsNaN(e) || math.IsInf(s, 0) || math.IsInf(e, 0) || e <= s+eps {
				continue
			}
			if !res.Good {
				events = append(events,
					event{time: s, kind: badStart},
					event{time: e, kind: badEnd},
				)
				continue
			}
			if _, ok := goodSpans[name]; !ok {
				goodOrder = append(goodOrder, name)
			}
			goodSpans[name] = append(goodSpans[name], interval.New(s, e))
		}
	}

	for _, name := range goodOrder {
		for _, span := range interval.Merge(goodSpans[name]) {
			events = append(events,
				event{time: span.Start, kind: goodStart, name: name, span: span},
				event{time: span.End, kind: goodEnd, name: name},
			)
		}
	}
	return events, strengths
}

type activeGood struct {
	name string
	span interval.Interval
}

type sweeper struct {
	strengths map[string]float64

	active  []activeGood
	bad     int
	prev    float64
	hasPrev bool

	open      bool
	slotStart float64
	coverage  map[string][]interval.Interval
	order     []string
	segments  []Segment

	slots []Slot
}

func (sw *sweeper) step(batch []event) {
	t := batch[0].time
	if sw.hasPrev && t > sw.prev+eps {
		sw.advance(sw.prev, t)
	}
	for _, ev := range batch {
		switch ev.kind {
		case goodStart:
			sw.removeActive(ev.name)
			sw.active = append(sw.active, activeGood{name: ev.name, span: ev.span})
		case goodEnd:
			sw.removeActive(ev.name)
		case badStart:
			sw.bad++
		case badEnd:
			sw.bad = max(0, sw.bad-1)
		}
	}

	now := sw.bad == 0 && len(sw.active) > 0
	switch {
	case !sw.open && now:
		sw.open = true
		sw.slotStart = t
		sw.resetSlot()
	case sw.open && !now:
		// coincident open and close produce nothing
		if t > sw.slotStart+eps {
			sw.finalize(t)
		}
		sw.resetSlot()
		sw.open = false
	}
	sw.prev = t
	sw.hasPrev = true
}

func (sw *sweeper) finish(end float64) {
	if sw.hasPrev && end > sw.prev+eps {
		sw.advance(sw.prev, end)
	}
	if sw.open && end > sw.slotStart+eps {
		sw.finalize(end)
	}
}

func (sw *sweeper) removeActive(name string) {
	sw.active = slices.DeleteFunc(sw.active, func(a activeGood) bool {
		return a.name == name
	})
}

func (sw *sweeper) resetSlot() {
	sw.coverage = map[string][]interval.Interval{}
	sw.order = nil
	sw.segments = nil
}

// advance credits [from, to) to every active good yoga and records one
// intensity segment for it.
func (sw *sweeper) advance(from, to float64) {
	if !sw.open || sw.bad != 0 || len(sw.active) == 0 || to <= from {
		return
	}

	yogas := make([]YogaStrength, 0, len(sw.active))
	var total float64
	for _, a := range sw.active {
		seg := interval.New(math.Max(from, a.span.Start), math.Min(to, a.span.End))
		if seg.End > seg.Start {
			if _, ok := sw.coverage[a.name]; !ok {
				sw.order = append(sw.order, a.name)
			}
			sw.coverage[a.name] = append(sw.coverage[a.name], seg)
		}
		st := sw.strengths[a.name]
		yogas = append(yogas, YogaStrength{Name: a.name, Strength: st})
		total += st
	}

	intensity := total
	if intensity == 0 {
		intensity = float64(len(yogas))
	}
	sw.segments = append(sw.segments, Segment{Start: from, End: to, Intensity: intensity, Yogas: yogas})
}

func (sw *sweeper) finalize(end float64) {
	if len(sw.order) == 0 {
		return
	}

	details := make([]Detail, 0, len(sw.order))
	for _, name := range sw.order {
		ranges := sw.coverage[name]
		var d float64
		for _, r := range ranges {
			d += r.End - r.Start
		}
		details = append(details, Detail{Name: name, Duration: d, Ranges: interval.Merge(ranges)})
	}

	merged := mergeSegments(sw.segments)
	slot := Slot{
		Start:             sw.slotStart,
		End:               end,
		Names:             slices.Clone(sw.order),
		Details:           details,
		IntensitySegments: merged,
		Peak:              peakOf(merged),
	}
	if dur := end - sw.slotStart; dur > 0 && len(merged) > 0 {
		var weighted float64
		for _, s := range merged {
			weighted += s.Intensity * s.Duration()
		}
		slot.AvgIntensity = weighted / dur
	}
	sw.slots = append(sw.slots, slot)
}

// mergeSegments joins neighbours with equal intensity and the same yogas.
func mergeSegments(segments []Segment) []Segment {
	out := []Segment{}
	var lastKey string
	for _, s := range segments {
		if s.End <= s.Start {
			continue
		}
		key := segmentKey(s)
		if n := len(out); n > 0 && key == lastKey {
			out[n-1].End = s.End
			continue
		}
		s.Yogas = slices.Clone(s.Yogas)
		out = append(out, s)
		lastKey = key
	}
	return out
}

func segmentKey(s Segment) string {
	parts := make([]string, 0, len(s.Yogas))
	for _, y := range s.Yogas {
		parts = append(parts, y.Name+":"+strconv.FormatFloat(y.Strength, 'g', -1, 64))
	}
	slices.Sort(parts)
	return strconv.FormatFloat(s.Intensity, 'g', -1, 64) + "|" + strings.Join(parts, ",")
}

// peakOf picks the highest intensity, then the longest, then the earliest.
func peakOf(segments []Segment) *Segment {
	if len(segments) == 0 {
		return nil
	}
	best := segments[0]
	for _, s := range segments[1:] {
		switch {
		case s.Intensity > best.Intensity:
			best = s
		case s.Intensity == best.Intensity:
			if s.Duration() > best.Duration() ||
				(s.Duration() == best.Duration() && s.Start < best.Start) {
				best = s
			}
		}
	}
	return &best
}
