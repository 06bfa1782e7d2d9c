package store

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"muhurta/internal/compose"
	"muhurta/internal/panchanga"
	"muhurta/internal/session"
)

func makeTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := makeTestStore(t)
	if _, err := s.Load(); !errors.Is(err, ErrNoState) {
		t.Errorf("got %v, want ErrNoState", err)
	}
}

func TestSaveLoad(t *testing.T) {
	s := makeTestStore(t)
	st := session.State{
		City:     "bangalore",
		Year:     2025,
		FoldMode: compose.FoldAny,
		Conditions: []compose.Condition{
			{ID: "c1", FilterKey: "tithi", BandKey: "tithi", Op: compose.OpOr, Polarity: compose.Exclude,
				Selections: []panchanga.Code{"1", "15"}},
		},
	}
	if err := s.Save(st); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.City != "bangalore" || got.Year != 2025 || got.FoldMode != compose.FoldAny {
		t.Errorf("state = %+v", got)
	}
	if len(got.Conditions) != 1 || got.Conditions[0].Polarity != compose.Exclude ||
		len(got.Conditions[0].Selections) != 2 {
		t.Errorf("conditions = %+v", got.Conditions)
	}

	st.City = "chennai"
	s.Persist(st)
	got, _ = s.Load()
	if got.City != "chennai" {
		t.Errorf("overwrite kept %q", got.City)
	}
}

func TestLoadNumericSelections(t *testing.T) {
	s := makeTestStore(t)
	raw := []byte(`{"city":"x","conditions":[{"filterKey":"vara","selections":[0, 2.0, "3"]}]}`)
	err := s.DB.Update(func(txn *badger.Txn) error { return txn.Set([]byte(StateKey), raw) })
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sel := got.Conditions[0].Selections
	if len(sel) != 3 || sel[0] != "0" || sel[1] != "2" || sel[2] != "3" {
		t.Errorf("selections = %v", sel)
	}
}
