// Package compose folds user filter conditions over Panchanga bands into
// final match windows.
package compose

import (
	"strings"

	"github.com/google/uuid"

	"muhurta/internal/interval"
	"muhurta/internal/panchanga"
)

// Polarity decides whether a condition adds time or removes it.
type Polarity string

const (
	Include Polarity = "INCLUDE"
	Exclude Polarity = "EXCLUDE"
)

// Op is the per-condition connective, honored by FoldSequence only.
type Op string

const (
	OpAnd Op = "AND"
	OpOr  Op = "OR"
)

// FoldMode is the global policy for combining active INCLUDE conditions.
type FoldMode string

const (
	// FoldAll intersects include conditions, starting from the whole view.
	FoldAll FoldMode = "ALL"
	// FoldAny unions include conditions, starting from nothing.
	FoldAny FoldMode = "ANY"
	// FoldSequence combines each include condition with the running result
	// through its own Op, left to right.
	FoldSequence FoldMode = "SEQUENCE"
)

// ParseFoldMode maps a user string to a FoldMode, defaulting to FoldAll.
func ParseFoldMode(s string) FoldMode {
	switch FoldMode(strings.ToUpper(strings.TrimSpace(s))) {
	case FoldAny:
		return FoldAny
	case FoldSequence:
		return FoldSequence
	default:
		return FoldAll
	}
}

// Condition is one user filter over a band.
type Condition struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	FilterKey  string           `json:"filterKey"`
	BandKey    string           `json:"bandKey"`
	Op         Op               `json:"op"`
	Polarity   Polarity         `json:"polarity"`
	Selections []panchanga.Code `json:"selections"`
}

// NewCondition creates an empty INCLUDE/AND condition for filterKey.
func NewCondition(filterKey string) Condition {
	return Condition{FilterKey: filterKey}.Normalize()
}

// Normalize fills missing fields the way restored or partially-specified
// conditions expect: a fresh ID, band key and default label from the filter
// definition, AND, INCLUDE and normalized selection codes. A label already
// set is kept.
func (c Condition) Normalize() Condition {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.FilterKey == "" {
		c.FilterKey = "vara"
	}
	d, known := panchanga.LookupFilter(c.FilterKey)
	if c.BandKey == "" {
		c.BandKey = panchanga.BandKeyFor(c.FilterKey)
	}
	if c.Label == "" {
		c.Label = c.FilterKey
		if known {
			c.Label = d.Label
		}
	}
	if c.Op != OpOr {
		c.Op = OpAnd
	}
	if c.Polarity != Exclude {
		c.Polarity = Include
	}
	c.Selections = panchanga.CodeSet(c.Selections).Sorted()
	return c
}

// Evaluation is the outcome of evaluating one condition. An inactive
// condition has no selections and constrains nothing; an active one carries
// the windows its selections match, which may be empty.
type Evaluation struct {
	Active  bool
	Windows []interval.Interval
}

// Inactive is the evaluation of a condition with no selections.
var Inactive = Evaluation{Windows: []interval.Interval{}}

// Evaluate queries the condition's band. Output is not merged.
func Evaluate(ds *panchanga.Dataset, c Condition) Evaluation {
	if len(c.Selections) == 0 {
		return Inactive
	}
	band := c.BandKey
	if band == "" {
		band = panchanga.BandKeyFor(c.FilterKey)
	}
	return Evaluation{
		Active:  true,
		Windows: ds.QueryBand(band, panchanga.CodeSet(c.Selections)),
	}
}
