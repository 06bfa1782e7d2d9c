package yoga

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

const sampleDataset = `{
  "meta": {"tz_hours": 5.5, "year": 2025},
  "bands": {
    "vara": {"intervals": [[0,1,0],[1,2,1],[2,3,2],[3,4,3],[4,5,4],[5,6,5],[6,7,6]]},
    "tithi": {"intervals": [[0,0.5,0],[0.5,1.5,1],[1.5,2.5,2],[2.5,3.5,3],[3.5,6.5,4],[6.5,7,5]]},
    "nakshatra": {"intervals": [[0,2,1],[2,4,2],[4,7,3]]},
    "rahu": {"intervals": [[0.2,0.3,1],[1.2,1.3,null]]}
  },
  "lookups": {
    "vara": ["Sunday","Monday","Tuesday","Wednesday","Thursday","Friday","Saturday"],
    "nakshatra": ["Ashwini","Bharani","Krittika"]
  }
}`

const sampleRules = `{
  "tithiFamilies": {"Nanda": [0, 5], "Bhadra": [1, 6]},
  "yogas": [
    {"id": 1, "name": "Siddha", "category": "benefic", "strength": 2,
     "definition": {"type": "varaTithiFamilies", "combos": [
       {"vara": "Sunday", "tithiFamilies": ["Nanda"]},
       {"vara": "Monday", "tithiFamilies": ["Bhadra"]}]}},
    {"id": "amrita", "name": "Amrita", "strength": "3",
     "definition": {"type": "varaNakList", "pairs": [{"vara": ["Tuesday", "wednes-day"], "nakshatras": ["Bharani"]}]}},
    {"id": "dagdha", "name": "Dagdha", "category": "malefic", "strength": -1,
     "definition": {"type": "tithiNakshatra", "list": [{"tithi": 4, "nakshatras": ["KRITTIKAA"]}]}},
    {"id": "triple", "name": "Triple", "strength": 1,
     "definition": {"type": "tripleList", "triples": [{"vara": "Sunday", "tithis": [0], "nakshatras": ["Ashwini"]}]}},
    {"id": "combined", "name": "Combined", "category": "malefic",
     "definition": {"type": "triple", "maleficVaras": ["Saturday"], "tithiFamilies": ["Nanda", "Bhadra"], "nakshatras": ["Krittika"]}},
    {"id": "rahu", "name": "Rahu Kalam", "category": "malefic",
     "definition": {"type": "band", "band_type": "rahu"}},
    {"id": "mystery", "name": "Mystery", "strength": 5, "definition": {"type": "cosmic"}}
  ]
}`

func fixtures(t *testing.T) (*panchanga.Dataset, *Rules) {
	t.Helper()
	ds, err := panchanga.Decode(strings.NewReader(sampleDataset))
	if err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	rules, err := DecodeRules(strings.NewReader(sampleRules))
	if err != nil {
		t.Fatalf("decode rules: %v", err)
	}
	return ds, rules
}

func ivs(pairs ...float64) []interval.Interval {
	out := []interval.Interval{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, interval.New(pairs[i], pairs[i+1]))
	}
	return out
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Thiruvaathirai":  "thiruvathirai",
		"Poosam":          "pusam",
		"Uttara-Phalguni": "uttaraphalguni",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNameIndexCustomNormalizer(t *testing.T) {
	upper := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
	x := NewNameIndex([]string{"Ashwini", "Bharani"}, upper)
	got := x.Codes([]string{" bharani ", "Unknown"}, true)
	if got.Len() != 1 || !got.Has("2") {
		t.Errorf("Codes = %v", got.Sorted())
	}
}

func TestDecodeRules(t *testing.T) {
	_, rules := fixtures(t)
	if len(rules.Yogas) != 7 {
		t.Fatalf("yogas = %d", len(rules.Yogas))
	}
	first := rules.Yogas[0]
	if first.ID != "1" || !first.IsGood() {
		t.Errorf("first rule = %+v", first)
	}
	if rules.Yogas[1].Strength != 3 {
		t.Errorf("string strength not parsed: %v", rules.Yogas[1].Strength)
	}

	wantTypes := []string{"varaTithiFamilies", "varaNakshatra", "tithiNakshatra", "tripleList", "triple", "band", "cosmic"}
	for i, want := range wantTypes {
		if got := DefinitionType(rules.Yogas[i].Definition); got != want {
			t.Errorf("rule %d type = %q, want %q", i, got, want)
		}
	}
	if rules.Yogas[2].IsGood() || rules.Yogas[4].IsGood() {
		t.Error("malefic rules classified good")
	}

	if _, err := DecodeRulesBytes(nil); err == nil {
		t.Error("expected error for empty rules")
	}
}

func TestResolve(t *testing.T) {
	ds, rules := fixtures(t)
	r := NewResolver(ds, rules, nil)

	want := map[string][]interval.Interval{
		"1":        ivs(0, 0.5, 1, 1.5),
		"amrita":   ivs(2, 4),
		"dagdha":   ivs(4, 6.5),
		"triple":   ivs(0, 0.5),
		"combined": ivs(6.5, 7),
		"rahu":     ivs(0.2, 0.3, 1.2, 1.3),
		"mystery":  ivs(),
	}
	for id, w := range want {
		rule, ok := rules.Lookup(id)
		if !ok {
			t.Fatalf("rule %q missing", id)
		}
		got := r.Resolve(rule)
		if !reflect.DeepEqual(got, w) {
			t.Errorf("Resolve(%s) = %v, want %v", id, got, w)
		}
	}
}

func TestResolveAllOrdersByStrength(t *testing.T) {
	ds, rules := fixtures(t)
	resolved := NewResolver(ds, rules, nil).ResolveAll(rules)

	var names []string
	for _, res := range resolved {
		names = append(names, res.Rule.Name)
	}
	want := []string{"Mystery", "Amrita", "Siddha", "Triple", "Combined", "Rahu Kalam", "Dagdha"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func TestFilter(t *testing.T) {
	ds, rules := fixtures(t)
	resolved := NewResolver(ds, rules, nil).ResolveAll(rules)

	t.Run("nil selection keeps non-empty yogas", func(t *testing.T) {
		if got := (Filter{}).Apply(ds, resolved); len(got) != 6 {
			t.Errorf("kept %d yogas, want 6", len(got))
		}
	})

	t.Run("empty selection keeps nothing", func(t *testing.T) {
		if got := (Filter{Selected: []string{}}).Apply(ds, resolved); len(got) != 0 {
			t.Errorf("kept %d yogas", len(got))
		}
	})

	t.Run("block drops yogas with nothing left", func(t *testing.T) {
		f := Filter{
			Selected: []string{"1", "amrita"},
			Bands:    map[string]BandFilter{"nakshatra": {Block: []panchanga.Code{"1"}}},
		}
		got := f.Apply(ds, resolved)
		if len(got) != 1 || got[0].Rule.ID != "amrita" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("require narrows windows", func(t *testing.T) {
		f := Filter{Bands: map[string]BandFilter{"vara": {Require: []panchanga.Code{"3"}}}}
		got := f.Apply(ds, resolved)
		if len(got) != 1 || !reflect.DeepEqual(got[0].Windows, ivs(3, 4)) {
			t.Fatalf("got %+v", got)
		}
	})
}

func TestSummaryAndActiveAt(t *testing.T) {
	ds, rules := fixtures(t)
	resolved := NewResolver(ds, rules, nil).ResolveAll(rules)
	view := interval.New(0, 7)

	s := Summarize(resolved, view)
	if s.GoodWindows != 4 || s.BadWindows != 4 || s.Yogas != 7 {
		t.Errorf("summary = %+v", s)
	}
	if math.Abs(s.GoodHours-84) > 1e-9 || math.Abs(s.BadHours-76.8) > 1e-9 {
		t.Errorf("hours = %v / %v", s.GoodHours, s.BadHours)
	}

	good, bad := ActiveAt(resolved, view, 0.25)
	if !reflect.DeepEqual(good, []string{"Siddha", "Triple"}) || !reflect.DeepEqual(bad, []string{"Rahu Kalam"}) {
		t.Errorf("ActiveAt = %v / %v", good, bad)
	}

	if h := CategoryHours(resolved, interval.Interval{}, true); h != 0 {
		t.Errorf("empty view hours = %v", h)
	}
}
