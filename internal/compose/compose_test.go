package compose

import (
	"reflect"
	"testing"

	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

func row(start, end float64, value panchanga.Code) panchanga.Row {
	return panchanga.Row{Start: start, End: end, Value: value, HasValue: true}
}

// testDataset has band a = 1 over [0,10), band b = 1 over [5,15), and
// band c = 1 over [2,8), all with value 2 elsewhere in [0,20).
func testDataset() *panchanga.Dataset {
	ds := &panchanga.Dataset{}
	ds.SetBand("a", []panchanga.Row{row(0, 10, "1"), row(10, 20, "2")}, nil)
	ds.SetBand("b", []panchanga.Row{row(0, 5, "2"), row(5, 15, "1"), row(15, 20, "2")}, nil)
	ds.SetBand("c", []panchanga.Row{row(0, 2, "2"), row(2, 8, "1"), row(8, 20, "2")}, nil)
	return ds
}

func cond(band string, polarity Polarity, selections ...panchanga.Code) Condition {
	return Condition{ID: band, Label: band, FilterKey: band, BandKey: band, Op: OpAnd, Polarity: polarity, Selections: selections}
}

func assertWindows(t *testing.T, got, want []interval.Interval) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

var fullView = interval.New(0, 20)

func TestComposeFoldModes(t *testing.T) {
	ds := testDataset()
	a := cond("a", Include, "1")
	b := cond("b", Include, "1")

	cases := []struct {
		name  string
		conds []Condition
		mode  FoldMode
		want  []interval.Interval
	}{
		{"all intersects", []Condition{a, b}, FoldAll, []interval.Interval{interval.New(5, 10)}},
		{"any unions", []Condition{a, b}, FoldAny, []interval.Interval{interval.New(0, 15)}},
		{
			"exclude subtracts in all",
			[]Condition{a, b, cond("c", Exclude, "1")},
			FoldAll,
			[]interval.Interval{interval.New(8, 10)},
		},
		{
			"exclude subtracts in any",
			[]Condition{a, b, cond("c", Exclude, "1")},
			FoldAny,
			[]interval.Interval{interval.New(0, 2), interval.New(8, 15)},
		},
		{"no conditions", nil, FoldAll, nil},
		{
			"only inactive conditions keep the whole view",
			[]Condition{cond("a", Include)},
			FoldAll,
			[]interval.Interval{fullView},
		},
		{
			"empty exclude is a no-op",
			[]Condition{a, cond("c", Exclude)},
			FoldAll,
			[]interval.Interval{interval.New(0, 10)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertWindows(t, Compose(ds, tc.conds, tc.mode, fullView), tc.want)
		})
	}
}

func TestComposeInactiveVersusActiveEmpty(t *testing.T) {
	ds := testDataset()
	a := cond("a", Include, "1")

	passThrough := Compose(ds, []Condition{a, cond("b", Include)}, FoldAll, fullView)
	assertWindows(t, passThrough, []interval.Interval{interval.New(0, 10)})

	// value 9 exists nowhere: active, but matching nothing
	narrowed := Compose(ds, []Condition{a, cond("b", Include, "9")}, FoldAll, fullView)
	if len(narrowed) != 0 {
		t.Errorf("active empty condition should empty the result, got %v", narrowed)
	}

	missingBand := Compose(ds, []Condition{a, cond("nope", Include, "1")}, FoldAll, fullView)
	if len(missingBand) != 0 {
		t.Errorf("selections on a missing band should empty the result, got %v", missingBand)
	}
}

func TestComposeRestartsAfterEmptied(t *testing.T) {
	ds := testDataset()

	// a covers the whole view, so the exclusion empties it
	whole := Condition{ID: "w", FilterKey: "a", BandKey: "a", Polarity: Exclude, Selections: []panchanga.Code{"1", "2"}}
	got := Compose(ds, []Condition{whole, cond("b", Include, "1")}, FoldAll, fullView)
	assertWindows(t, got, []interval.Interval{interval.New(5, 15)})

	conds := []Condition{
		cond("a", Include, "2"), // [10,20)
		cond("c", Include, "1"), // [2,8), disjoint
		cond("b", Include, "1"), // [5,15)
	}
	got = Compose(ds, conds, FoldAll, fullView)
	assertWindows(t, got, []interval.Interval{interval.New(5, 15)})
}

func TestComposeSequence(t *testing.T) {
	ds := testDataset()
	a := cond("a", Include, "1")
	b := cond("b", Include, "1")
	c := cond("c", Include, "1")

	b.Op = OpOr
	got := Compose(ds, []Condition{a, b}, FoldSequence, fullView)
	assertWindows(t, got, []interval.Interval{interval.New(0, 15)})

	// (a OR b) AND c
	got = Compose(ds, []Condition{a, b, c}, FoldSequence, fullView)
	assertWindows(t, got, []interval.Interval{interval.New(2, 8)})

	// op is inert outside SEQUENCE
	got = Compose(ds, []Condition{a, b}, FoldAll, fullView)
	assertWindows(t, got, []interval.Interval{interval.New(5, 10)})
}

func TestComposeClipsToView(t *testing.T) {
	ds := testDataset()
	got := Compose(ds, []Condition{cond("b", Include, "1")}, FoldAny, interval.New(6, 12))
	assertWindows(t, got, []interval.Interval{interval.New(6, 12)})
}

func TestEvaluate(t *testing.T) {
	ds := testDataset()
	if ev := Evaluate(ds, cond("a", Include)); ev.Active || len(ev.Windows) != 0 {
		t.Errorf("no selections should be inactive, got %+v", ev)
	}
	ev := Evaluate(ds, cond("a", Include, "1", "2"))
	if !ev.Active || len(ev.Windows) != 2 {
		t.Errorf("expected two unmerged windows, got %+v", ev)
	}
}

func TestNormalize(t *testing.T) {
	c := Condition{FilterKey: "tithi", Selections: []panchanga.Code{"3", "1", "3"}}.Normalize()
	if c.ID == "" {
		t.Error("expected generated id")
	}
	if c.Label != "Tithi" || c.BandKey != "tithi" {
		t.Errorf("unexpected label/band %q/%q", c.Label, c.BandKey)
	}
	if c.Op != OpAnd || c.Polarity != Include {
		t.Errorf("unexpected defaults %q/%q", c.Op, c.Polarity)
	}
	if !reflect.DeepEqual(c.Selections, []panchanga.Code{"1", "3"}) {
		t.Errorf("selections = %v", c.Selections)
	}

	named := Condition{FilterKey: "tithi", Label: "My tithis"}.Normalize()
	if named.Label != "My tithis" {
		t.Errorf("user label replaced by %q", named.Label)
	}

	feed := Condition{FilterKey: "ics:work", Label: "Work"}.Normalize()
	if feed.BandKey != "ics:work" || feed.Label != "Work" {
		t.Errorf("feed condition = %+v", feed)
	}
}

func TestParseFoldMode(t *testing.T) {
	for in, want := range map[string]FoldMode{"any": FoldAny, "Sequence": FoldSequence, "": FoldAll, "bogus": FoldAll} {
		if got := ParseFoldMode(in); got != want {
			t.Errorf("ParseFoldMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSlots(t *testing.T) {
	ds := testDataset()
	conds := []Condition{cond("a", Include, "1"), cond("b", Include, "1")}
	final := Compose(ds, conds, FoldAny, fullView)
	slots := BuildSlots(ds, conds, final, nil)
	if len(slots) != 1 {
		t.Fatalf("slots = %+v", slots)
	}
	if len(slots[0].Labels) != 2 || slots[0].Labels[0].Text != "a" || slots[0].Labels[1].Text != "b" {
		t.Errorf("labels = %+v", slots[0].Labels)
	}
	if got := BuildSlots(ds, conds, nil, nil); len(got) != 0 {
		t.Errorf("expected no slots, got %v", got)
	}
}

func TestView(t *testing.T) {
	v := NewView(interval.New(100, 200), 30)
	if v.Start != 100 || v.End != 130 || v.PanRatio != 0 {
		t.Fatalf("initial view %+v", v)
	}

	v.Apply(190)
	if v.Start != 170 || v.End != 200 || v.PanRatio != 1 {
		t.Errorf("clamped view %+v", v)
	}

	v.SetPanRatio(0.5)
	if v.Start != 135 || v.End != 165 {
		t.Errorf("panned view %+v", v)
	}

	v.SetWindowDays(500)
	if v.WindowDays != 100 || v.Start != 100 || v.End != 200 || v.PanRatio != 0 {
		t.Errorf("zoomed view %+v", v)
	}

	v.SetWindowDays(-1)
	if v.WindowDays != 100 {
		t.Errorf("negative zoom should be ignored, got %v", v.WindowDays)
	}
}
