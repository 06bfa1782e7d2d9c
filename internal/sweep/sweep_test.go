package sweep

import (
	"math"
	"reflect"
	"testing"

	"muhurta/internal/interval"
	"muhurta/internal/yoga"
)

func good(name string, strength float64, windows ...interval.Interval) yoga.Resolved {
	return yoga.Resolved{
		Rule:    yoga.Rule{ID: name, Name: name, Category: "benefic", Strength: strength},
		Good:    true,
		Windows: windows,
	}
}

func bad(name string, windows ...interval.Interval) yoga.Resolved {
	return yoga.Resolved{
		Rule:    yoga.Rule{ID: name, Name: name, Category: "malefic", Strength: -1},
		Windows: windows,
	}
}

func spans(slots []Slot) []interval.Interval {
	out := []interval.Interval{}
	for _, s := range slots {
		out = append(out, interval.New(s.Start, s.End))
	}
	return out
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestGoodOnlyBadWindowSplitsSlot(t *testing.T) {
	resolved := []yoga.Resolved{
		good("Siddha", 2, interval.New(0, 10)),
		bad("Rahu", interval.New(4, 6)),
	}
	slots := GoodOnly(resolved, 0, interval.New(0, 10))

	want := []interval.Interval{interval.New(0, 4), interval.New(6, 10)}
	if got := spans(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for _, s := range slots {
		if len(s.IntensitySegments) != 1 || s.IntensitySegments[0].Intensity != 2 {
			t.Errorf("slot %v segments = %+v", interval.New(s.Start, s.End), s.IntensitySegments)
		}
		assertClose(t, "avg", s.AvgIntensity, 2)
		if !reflect.DeepEqual(s.Names, []string{"Siddha"}) {
			t.Errorf("names = %v", s.Names)
		}
	}
}

func TestGoodOnlyIntensityAndPeak(t *testing.T) {
	resolved := []yoga.Resolved{
		good("s1", 1, interval.New(0, 5)),
		good("s3", 3, interval.New(2, 8)),
	}
	slots := GoodOnly(resolved, 0, interval.New(0, 10))
	if len(slots) != 1 {
		t.Fatalf("slots = %+v", slots)
	}
	s := slots[0]
	if s.Start != 0 || s.End != 8 {
		t.Errorf("slot = [%v,%v)", s.Start, s.End)
	}

	type seg struct{ start, end, intensity float64 }
	var got []seg
	for _, g := range s.IntensitySegments {
		got = append(got, seg{g.Start, g.End, g.Intensity})
	}
	want := []seg{{0, 2, 1}, {2, 5, 4}, {5, 8, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("segments = %v, want %v", got, want)
	}

	if s.Peak == nil || s.Peak.Start != 2 || s.Peak.End != 5 || s.Peak.Intensity != 4 {
		t.Errorf("peak = %+v", s.Peak)
	}
	assertClose(t, "avg", s.AvgIntensity, 23.0/8.0)

	if !reflect.DeepEqual(s.Names, []string{"s1", "s3"}) {
		t.Errorf("names = %v", s.Names)
	}
	if len(s.Details) != 2 {
		t.Fatalf("details = %+v", s.Details)
	}
	assertClose(t, "s1 duration", s.Details[0].Duration, 5)
	assertClose(t, "s3 duration", s.Details[1].Duration, 6)
	if !reflect.DeepEqual(s.Details[0].Ranges, []interval.Interval{interval.New(0, 5)}) {
		t.Errorf("s1 ranges = %v", s.Details[0].Ranges)
	}
}

func TestGoodOnlySnapping(t *testing.T) {
	t.Run("sub-second overlap with a bad window is not an overlap", func(t *testing.T) {
		resolved := []yoga.Resolved{
			good("g", 1, interval.New(0, 1.000003)),
			bad("b", interval.New(1.000001, 2)),
		}
		slots := GoodOnly(resolved, 0, interval.New(0, 2))
		if got := spans(slots); !reflect.DeepEqual(got, []interval.Interval{interval.New(0, 1)}) {
			t.Errorf("slots = %v", got)
		}
	})

	t.Run("sub-second gap between good windows is not a gap", func(t *testing.T) {
		resolved := []yoga.Resolved{
			good("a", 1, interval.New(0, 1.000001)),
			good("b", 1, interval.New(1.000003, 2)),
		}
		slots := GoodOnly(resolved, 0, interval.New(0, 2))
		if got := spans(slots); !reflect.DeepEqual(got, []interval.Interval{interval.New(0, 2)}) {
			t.Fatalf("slots = %v", got)
		}
		if len(slots[0].IntensitySegments) != 2 {
			t.Errorf("segments with different yogas must not merge: %+v", slots[0].IntensitySegments)
		}
	})

	t.Run("slivers shorter than half a second are dropped", func(t *testing.T) {
		resolved := []yoga.Resolved{good("tiny", 1, interval.New(5, 5+0.2/SnapPerDay))}
		if slots := GoodOnly(resolved, 0, interval.New(0, 10)); len(slots) != 0 {
			t.Errorf("slots = %v", spans(slots))
		}
	})

	t.Run("julian day magnitudes", func(t *testing.T) {
		const jd = 2460676.5
		resolved := []yoga.Resolved{
			good("g", 1, interval.New(jd, jd+0.25+0.1/SnapPerDay)),
			bad("b", interval.New(jd+0.25-0.1/SnapPerDay, jd+0.5)),
		}
		slots := GoodOnly(resolved, 0, interval.New(jd, jd+1))
		if len(slots) != 1 || slots[0].End != Snap(jd+0.25) {
			t.Errorf("slots = %v", spans(slots))
		}
	})
}

func TestGoodOnlyBaseAndView(t *testing.T) {
	resolved := []yoga.Resolved{
		good("Siddha", 2, interval.New(0, 10)),
		bad("Rahu", interval.New(4, 6)),
	}
	got := spans(GoodOnly(resolved, 3, interval.New(0, 8)))
	want := []interval.Interval{interval.New(3, 4), interval.New(6, 8)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("slots = %v, want %v", got, want)
	}

	if slots := GoodOnly(resolved, 0, interval.Interval{}); len(slots) != 0 {
		t.Errorf("invalid view should give nothing, got %v", spans(slots))
	}
	if slots := GoodOnly([]yoga.Resolved{bad("Rahu", interval.New(0, 5))}, 0, interval.New(0, 10)); len(slots) != 0 {
		t.Errorf("bad-only input should give nothing, got %v", spans(slots))
	}
}

func TestGoodOnlyZeroStrengthCountsYogas(t *testing.T) {
	resolved := []yoga.Resolved{
		good("a", 0, interval.New(0, 4)),
		good("b", 0, interval.New(2, 4)),
	}
	slots := GoodOnly(resolved, 0, interval.New(0, 4))
	if len(slots) != 1 {
		t.Fatalf("slots = %v", spans(slots))
	}
	segs := slots[0].IntensitySegments
	if len(segs) != 2 || segs[0].Intensity != 1 || segs[1].Intensity != 2 {
		t.Errorf("segments = %+v", segs)
	}
}

func TestGoodOnlyMergesSameYogaWindows(t *testing.T) {
	resolved := []yoga.Resolved{
		good("a", 1, interval.New(0, 3), interval.New(2, 5)),
	}
	slots := GoodOnly(resolved, 0, interval.New(0, 10))
	if len(slots) != 1 || slots[0].End != 5 || len(slots[0].IntensitySegments) != 1 {
		t.Fatalf("slots = %+v", slots)
	}
	assertClose(t, "intensity", slots[0].IntensitySegments[0].Intensity, 1)
}

func TestPeakTieBreak(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 1, Intensity: 3},
		{Start: 1, End: 3, Intensity: 3},
		{Start: 3, End: 5, Intensity: 3},
		{Start: 5, End: 6, Intensity: 1},
	}
	p := peakOf(segs)
	if p == nil || p.Start != 1 {
		t.Errorf("peak = %+v, want longest earliest", p)
	}
	if peakOf(nil) != nil {
		t.Error("expected nil peak for no segments")
	}
}

func TestAllSlotsAndFilters(t *testing.T) {
	resolved := []yoga.Resolved{
		good("Siddha", 2, interval.New(5, 6), interval.New(0, 1)),
		bad("Rahu", interval.New(2, 3)),
	}
	entries := AllSlots(resolved, 0.5)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name+"/"+e.Badge)
	}
	if !reflect.DeepEqual(names, []string{"Siddha/Good", "Rahu/Bad", "Siddha/Good"}) {
		t.Errorf("entries = %v", names)
	}
	if got := AllSlots(resolved, 6); len(got) != 0 {
		t.Errorf("windows ending at base should be skipped, got %v", got)
	}

	if got := FilterEntries(entries, []string{"Rahu"}); len(got) != 1 || got[0].Name != "Rahu" {
		t.Errorf("FilterEntries = %v", got)
	}
	if got := FilterEntries(entries, nil); len(got) != 3 {
		t.Errorf("no filter should keep all, got %d", len(got))
	}

	slots := GoodOnly(resolved, 0, interval.New(0, 10))
	if got := FilterSlots(slots, []string{"Other"}); len(got) != 0 {
		t.Errorf("FilterSlots = %v", spans(got))
	}
	if got := FilterSlots(slots, []string{"Siddha"}); len(got) != 2 {
		t.Errorf("FilterSlots = %v", spans(got))
	}
}
