// Package yoga decodes composite yoga rules and resolves them into time
// windows over a Panchanga dataset.
package yoga

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"muhurta/internal/panchanga"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Rules is the parsed rules file.
type Rules struct {
	Yogas []Rule `json:"yogas"`
	// TithiFamilies maps a family name to its 0-based tithi numbers.
	TithiFamilies map[string][]panchanga.Code `json:"tithiFamilies"`
}

// Rule is one named yoga definition. Rules are immutable once loaded.
type Rule struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Strength   float64    `json:"strength"`
	Definition Definition `json:"-"`
}

// IsGood reports whether the rule is benefic: category "benefic" or a
// positive strength.
func (r Rule) IsGood() bool {
	return r.Category == "benefic" || r.Strength > 0
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         jsoniter.RawMessage `json:"id"`
		Name       string              `json:"name"`
		Category   string              `json:"category"`
		Strength   jsoniter.RawMessage `json:"strength"`
		Definition jsoniter.RawMessage `json:"definition"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Rule{
		ID:       scalarString(raw.ID),
		Name:     raw.Name,
		Category: strings.ToLower(strings.TrimSpace(raw.Category)),
	}
	if s, err := strconv.ParseFloat(scalarString(raw.Strength), 64); err == nil {
		r.Strength = s
	}
	r.Definition = parseDefinition(raw.Definition)
	if r.ID == "" {
		r.ID = r.Name
	}
	return nil
}

func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Strength float64 `json:"strength"`
		Type     string  `json:"type"`
		Good     bool    `json:"good"`
	}{r.ID, r.Name, r.Category, r.Strength, DefinitionType(r.Definition), r.IsGood()})
}

// scalarString renders a JSON string or number as text.
func scalarString(raw jsoniter.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unq, err := strconv.Unquote(s); err == nil {
		return strings.TrimSpace(unq)
	}
	return s
}

// DecodeRules parses a rules file. Individual malformed definitions resolve
// to Unknown rather than failing the whole file.
func DecodeRules(r io.Reader) (*Rules, error) {
	var rules Rules
	if err := json.NewDecoder(r).Decode(&rules); err != nil {
		return nil, fmt.Errorf("yoga: decode rules: %w", err)
	}
	if rules.TithiFamilies == nil {
		rules.TithiFamilies = map[string][]panchanga.Code{}
	}
	return &rules, nil
}

func DecodeRulesBytes(body []byte) (*Rules, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("yoga: empty rules body")
	}
	return DecodeRules(bytes.NewReader(body))
}

// Lookup returns the rule with id.
func (rs *Rules) Lookup(id string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	for _, r := range rs.Yogas {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
