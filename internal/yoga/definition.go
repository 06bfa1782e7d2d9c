package yoga

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"muhurta/internal/panchanga"
)

// Definition is the combination a rule matches. It is one of VaraTithiFamilies,
// VaraTithi, VaraNakshatra, TithiNakshatra, TripleList, TripleCombined,
// BandRef or Unknown.
type Definition interface {
	definition()
}

// Combo is one entry of a combination list. Which fields apply depends on
// the enclosing definition.
type Combo struct {
	Vara          NameList         `json:"vara"`
	Tithi         *panchanga.Code  `json:"tithi"`
	Tithis        []panchanga.Code `json:"tithis"`
	TithiFamilies NameList         `json:"tithiFamilies"`
	Nakshatras    NameList         `json:"nakshatras"`
}

// VaraTithiFamilies matches weekday(s) on tithis of the named families.
type VaraTithiFamilies struct{ Combos []Combo }

// VaraTithi matches weekday(s) on explicit tithis and/or families.
type VaraTithi struct{ Combos []Combo }

// VaraNakshatra matches weekday(s) under named nakshatras.
type VaraNakshatra struct{ Combos []Combo }

// TithiNakshatra matches tithis under named nakshatras.
type TithiNakshatra struct{ Combos []Combo }

// TripleList matches weekday, tithi and nakshatra per listed triple.
type TripleList struct{ Triples []Combo }

// TripleCombined is the single-combo triple shape.
type TripleCombined struct {
	MaleficVaras  NameList
	TithiFamilies NameList
	Nakshatras    NameList
}

// BandRef takes a dataset band's rows as windows, regardless of value.
type BandRef struct{ Band string }

// Unknown is any definition type this resolver does not understand. It
// resolves to no windows.
type Unknown struct{ Type string }

func (VaraTithiFamilies) definition() {}
func (VaraTithi) definition()         {}
func (VaraNakshatra) definition()     {}
func (TithiNakshatra) definition()    {}
func (TripleList) definition()        {}
func (TripleCombined) definition()    {}
func (BandRef) definition()           {}
func (Unknown) definition()           {}

// DefinitionType names the variant, for display.
func DefinitionType(d Definition) string {
	switch v := d.(type) {
	case VaraTithiFamilies:
		return "varaTithiFamilies"
	case VaraTithi:
		return "varaTithi"
	case VaraNakshatra:
		return "varaNakshatra"
	case TithiNakshatra:
		return "tithiNakshatra"
	case TripleList:
		return "tripleList"
	case TripleCombined:
		return "triple"
	case BandRef:
		return "band"
	case Unknown:
		return v.Type
	default:
		return ""
	}
}

// NameList decodes either a single name or a list of names.
type NameList []string

func (n *NameList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*n = nil
		} else {
			*n = NameList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		// tolerated: an unusable name list matches nothing
		*n = nil
		return nil
	}
	*n = many
	return nil
}

type rawDefinition struct {
	Type          string   `json:"type"`
	Combos        []Combo  `json:"combos"`
	Pairs         []Combo  `json:"pairs"`
	List          []Combo  `json:"list"`
	Triples       []Combo  `json:"triples"`
	MaleficVaras  NameList `json:"maleficVaras"`
	TithiFamilies NameList `json:"tithiFamilies"`
	Nakshatras    NameList `json:"nakshatras"`
	BandType      string   `json:"band_type"`
	Band          string   `json:"band"`
}

// combos returns the first combination list present, in the order
// combos, pairs, list, triples.
func (d rawDefinition) combos() []Combo {
	for _, c := range [][]Combo{d.Combos, d.Pairs, d.List, d.Triples} {
		if c != nil {
			return c
		}
	}
	return nil
}

func parseDefinition(data jsoniter.RawMessage) Definition {
	var d rawDefinition
	if len(data) == 0 || json.Unmarshal(data, &d) != nil {
		return Unknown{}
	}
	switch strings.TrimSpace(d.Type) {
	case "varaTithiFamilies":
		return VaraTithiFamilies{Combos: d.combos()}
	case "varaTithi", "varaTithiList":
		return VaraTithi{Combos: d.combos()}
	case "varaNakshatra", "varaNakList":
		return VaraNakshatra{Combos: d.combos()}
	case "tithiNakshatra", "tithiNakList":
		return TithiNakshatra{Combos: d.combos()}
	case "triple", "tripleList":
		if d.Triples != nil {
			return TripleList{Triples: d.Triples}
		}
		return TripleCombined{
			MaleficVaras:  d.MaleficVaras,
			TithiFamilies: d.TithiFamilies,
			Nakshatras:    d.Nakshatras,
		}
	case "band":
		band := d.BandType
		if band == "" {
			band = d.Band
		}
		return BandRef{Band: band}
	default:
		return Unknown{Type: d.Type}
	}
}
