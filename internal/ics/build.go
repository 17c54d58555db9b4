// Package ics generates the calendar-interchange export for a schedule:
// one VEVENT per recurring definition with a weekly RRULE (INTERVAL=2 for
// alternating-week definitions) and EXDATEs for skipped weeks.
package ics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/timetable"
)

const prodID = "-//Semestra//Schedule Export//EN"

// definition is the per-EventID aggregation of its concrete occurrences.
type definition struct {
	rep       model.ScheduleOccurrence // representative occurrence
	weeks     []int                    // distinct weeks, ascending
	skipWeeks []int                    // weeks suppressed by skip
}

// Build serializes the ICS export for a deduplicated occurrence list
// resolved against semesterStart. Disabled definitions are omitted; skipped
// occurrences stay in the recurrence but are excluded via EXDATE.
func Build(occs []model.ScheduleOccurrence, semesterStart time.Time) ([]byte, error) {
	if occs == nil {
		occs = []model.ScheduleOccurrence{}
	}

	defs := groupDefinitions(occs)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now().UTC()
	for _, id := range ids {
		if err := addDefinition(cal, defs[id], semesterStart, now); err != nil {
			// A single malformed definition must not sink the export.
			appLog.Error("ics: skipping definition", err, "event_id", id)
		}
	}

	return []byte(cal.Serialize()), nil
}

func groupDefinitions(occs []model.ScheduleOccurrence) map[string]*definition {
	defs := make(map[string]*definition)
	for _, occ := range occs {
		if !occ.Enable {
			continue
		}
		d := defs[occ.EventID]
		if d == nil {
			d = &definition{rep: occ}
			defs[occ.EventID] = d
		}
		d.weeks = append(d.weeks, occ.Week)
		if occ.Skip {
			d.skipWeeks = append(d.skipWeeks, occ.Week)
		}
	}
	for _, d := range defs {
		sort.Ints(d.weeks)
		d.weeks = dedupeInts(d.weeks)
		sort.Ints(d.skipWeeks)
	}
	return defs
}

func addDefinition(cal *ical.Calendar, d *definition, semesterStart time.Time, stamp time.Time) error {
	if len(d.weeks) == 0 {
		return errors.New("definition has no weeks")
	}

	rep := d.rep
	firstWeek := d.weeks[0]
	lastWeek := d.weeks[len(d.weeks)-1]

	date := timetable.DateForOccurrence(semesterStart, firstWeek, rep.DayOfWeek)
	startMin := timetable.ToMinutes(rep.StartTime)
	endMin := timetable.ToMinutes(rep.EndTime)
	if endMin <= startMin {
		endMin = startMin + 30
	}
	start := date.Add(time.Duration(startMin) * time.Minute)
	end := date.Add(time.Duration(endMin) * time.Minute)

	ev := cal.AddEvent(fmt.Sprintf("%s@semestra", rep.EventID))
	ev.SetDtStampTime(stamp)
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.SetSummary(timetable.DisplayTitle(rep))
	if rep.Note != "" {
		ev.SetDescription(rep.Note)
	}

	interval := 1
	if rep.WeekPattern == model.PatternAlternating {
		interval = 2
	}
	count := (lastWeek-firstWeek)/interval + 1

	if count > 1 {
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:     rrule.WEEKLY,
			Interval: interval,
			Count:    count,
			Dtstart:  start,
		})
		if err != nil {
			return fmt.Errorf("rrule: %w", err)
		}
		ev.AddRrule(rule.OrigOptions.RRuleString())
	}

	for _, week := range d.skipWeeks {
		exDate := timetable.DateForOccurrence(semesterStart, week, rep.DayOfWeek).
			Add(time.Duration(startMin) * time.Minute)
		ev.AddProperty(ical.ComponentPropertyExdate, exDate.UTC().Format("20060102T150405Z"))
	}

	return nil
}

func dedupeInts(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
