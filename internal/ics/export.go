package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"muhurta/internal/compose"
	"muhurta/internal/panchanga"
	"muhurta/internal/sweep"
)

// uidSpace namespaces exported event UIDs so re-exports of the same slot
// keep their UID.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:muhurta:slots"))

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendarFor("muhurta")
	cal.SetMethod(ical.MethodPublish)
	cal.SetName(name)
	return cal
}

func addEvent(cal *ical.Calendar, kind string, start, end float64, summary, desc string, stamp time.Time) {
	id := uuid.NewSHA1(uidSpace, []byte(fmt.Sprintf("%s/%.6f/%.6f", kind, start, end)))
	ev := cal.AddEvent(id.String() + "@muhurta")
	ev.SetDtStampTime(stamp)
	ev.SetStartAt(panchanga.JDToTime(start))
	ev.SetEndAt(panchanga.JDToTime(end))
	ev.SetSummary(summary)
	if desc != "" {
		ev.SetDescription(desc)
	}
	ev.SetTimeTransparency(ical.TransparencyTransparent)
}

// ExportGoodOnly renders good-only slots as a VCALENDAR document.
func ExportGoodOnly(name string, slots []sweep.Slot, stamp time.Time) string {
	cal := newCalendar(name)
	for _, s := range slots {
		summary := "Good: " + strings.Join(s.Names, ", ")
		var desc strings.Builder
		fmt.Fprintf(&desc, "Average intensity %.2f", s.AvgIntensity)
		if s.Peak != nil {
			fmt.Fprintf(&desc, "\nPeak %.2f from %s to %s", s.Peak.Intensity,
				panchanga.JDToTime(s.Peak.Start).Format(time.RFC3339),
				panchanga.JDToTime(s.Peak.End).Format(time.RFC3339))
		}
		addEvent(cal, "good", s.Start, s.End, summary, desc.String(), stamp)
	}
	return cal.Serialize()
}

// ExportMatches renders composed match slots as a VCALENDAR document.
func ExportMatches(name string, slots []compose.Slot, stamp time.Time) string {
	cal := newCalendar(name)
	for _, s := range slots {
		lines := make([]string, 0, len(s.Labels))
		for _, l := range s.Labels {
			if len(l.Selections) == 0 {
				lines = append(lines, l.Text)
				continue
			}
			lines = append(lines, l.Text+": "+strings.Join(l.Selections, ", "))
		}
		addEvent(cal, "match", s.Start, s.End, "Match", strings.Join(lines, "\n"), stamp)
	}
	return cal.Serialize()
}
