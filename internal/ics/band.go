package ics

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"muhurta/internal/interval"
	appLog "muhurta/internal/log"
	"muhurta/internal/panchanga"
)

// Codes written into synthetic bands.
const (
	CodeOff panchanga.Code = "0"
	CodeOn  panchanga.Code = "1"
)

// Band is a synthetic band ready to install into a dataset.
type Band struct {
	Key    string
	Name   string
	Rows   []panchanga.Row
	Labels map[string]string
}

// Install adds or replaces the band in ds.
func (b Band) Install(ds *panchanga.Dataset) {
	ds.SetBand(b.Key, b.Rows, b.Labels)
}

// Spans returns the intervals the band marks as on.
func (b Band) Spans() []interval.Interval {
	out := make([]interval.Interval, 0, len(b.Rows))
	for _, r := range b.Rows {
		if r.HasValue && r.Value == CodeOn {
			out = append(out, interval.New(r.Start, r.End))
		}
	}
	return out
}

func FeedBandKey(id string) string { return "ics:" + id }

func AvailabilityBandKey(name string) string { return "avail:" + name }

// FeedBand builds the busy band of a feed over bounds (Julian Days). Busy
// time is coded 1 and the gaps between busy spans 0.
func FeedBand(feed Feed, body []byte, bounds interval.Interval, loc *time.Location) (Band, error) {
	if !bounds.Valid() {
		return Band{}, errors.New("ics: invalid bounds")
	}
	events, err := ParseFeed(feed, body)
	if err != nil {
		return Band{}, fmt.Errorf("ics: feed %s: %w", feed.ID, err)
	}
	res, err := Expand(events, ExpandConfig{
		Location:   loc,
		RangeStart: panchanga.JDToTime(bounds.Start),
		RangeEnd:   panchanga.JDToTime(bounds.End),
	})
	if err != nil {
		return Band{}, fmt.Errorf("ics: feed %s: %w", feed.ID, err)
	}

	busy := make([]interval.Interval, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		if occ.Free {
			continue
		}
		busy = append(busy, interval.New(panchanga.TimeToJD(occ.Start), panchanga.TimeToJD(occ.End)))
	}

	name := feed.Name
	if name == "" {
		name = feed.ID
	}
	b := Band{
		Key:    FeedBandKey(feed.ID),
		Name:   name,
		Rows:   coverRows(busy, bounds),
		Labels: map[string]string{string(CodeOff): "Free", string(CodeOn): "Busy"},
	}
	appLog.Info("ics feed band built", "feed", feed.ID, "occurrences", len(res.Occurrences), "busy_spans", len(b.Spans()))
	return b, nil
}

// Availability is a recurring window, e.g. office hours.
type Availability struct {
	Name string
	// RRule is an RFC 5545 recurrence rule, optionally preceded by a
	// DTSTART line. Without DTSTART the rule starts at local midnight of
	// the first day in range.
	RRule    string
	Duration time.Duration
}

// AvailabilityBand expands a onto bounds. Available time is coded 1.
func AvailabilityBand(a Availability, bounds interval.Interval, loc *time.Location) (Band, error) {
	if !bounds.Valid() {
		return Band{}, errors.New("ics: invalid bounds")
	}
	if a.Duration <= 0 {
		return Band{}, fmt.Errorf("ics: availability %s: duration must be positive", a.Name)
	}
	if loc == nil {
		loc = time.UTC
	}

	opt, err := rrule.StrToROptionInLocation(a.RRule, loc)
	if err != nil {
		return Band{}, fmt.Errorf("ics: availability %s: %w", a.Name, err)
	}
	rangeStart := panchanga.JDToTime(bounds.Start).In(loc)
	rangeEnd := panchanga.JDToTime(bounds.End).In(loc)
	if opt.Dtstart.IsZero() {
		opt.Dtstart = time.Date(rangeStart.Year(), rangeStart.Month(), rangeStart.Day(), 0, 0, 0, 0, loc)
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return Band{}, fmt.Errorf("ics: availability %s: %w", a.Name, err)
	}

	starts := r.Between(rangeStart.Add(-a.Duration), rangeEnd, true)
	spans := make([]interval.Interval, 0, len(starts))
	for _, s := range starts {
		spans = append(spans, interval.New(panchanga.TimeToJD(s), panchanga.TimeToJD(s.Add(a.Duration))))
	}

	b := Band{
		Key:    AvailabilityBandKey(a.Name),
		Name:   a.Name,
		Rows:   coverRows(spans, bounds),
		Labels: map[string]string{string(CodeOff): "Unavailable", string(CodeOn): "Available"},
	}
	appLog.Info("availability band built", "name", a.Name, "occurrences", len(starts))
	return b, nil
}

// coverRows codes the merged spans within bounds as on and everything else
// within bounds as off, in start order.
func coverRows(spans []interval.Interval, bounds interval.Interval) []panchanga.Row {
	on := interval.Clip(interval.Merge(spans), bounds.Start, bounds.End)
	off := interval.Subtract([]interval.Interval{bounds}, on)

	rows := make([]panchanga.Row, 0, len(on)+len(off))
	i, j := 0, 0
	for i < len(on) || j < len(off) {
		if j >= len(off) || (i < len(on) && on[i].Start < off[j].Start) {
			rows = append(rows, panchanga.Row{Start: on[i].Start, End: on[i].End, Value: CodeOn, HasValue: true})
			i++
			continue
		}
		rows = append(rows, panchanga.Row{Start: off[j].Start, End: off[j].End, Value: CodeOff, HasValue: true})
		j++
	}
	return rows
}
